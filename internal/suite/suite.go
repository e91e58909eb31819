// Package suite holds the named payload cases checked by the parameter
// validation probe.
package suite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"soraprobe/internal/domain"
)

// Case is one named payload and whether it is expected to validate.
type Case struct {
	Name        string                   `yaml:"name"`
	ExpectValid *bool                    `yaml:"expect_valid,omitempty"`
	Payload     domain.GenerationRequest `yaml:"payload"`
}

// Expected reports the expected validity; cases are expected valid unless
// they say otherwise.
func (c Case) Expected() bool {
	return c.ExpectValid == nil || *c.ExpectValid
}

type file struct {
	Cases []Case `yaml:"cases"`
}

// Load reads a YAML suite from path.
func Load(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a YAML suite document. Unknown keys are rejected so typos in
// payload field names do not silently pass.
func Decode(r io.Reader) ([]Case, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("suite: empty document")
	}
	var doc file
	if err := yaml.UnmarshalStrict(raw, &doc); err != nil {
		return nil, fmt.Errorf("suite: decode: %w", err)
	}
	if len(doc.Cases) == 0 {
		return nil, errors.New("suite: no cases defined")
	}
	seen := make(map[string]struct{}, len(doc.Cases))
	for i := range doc.Cases {
		name := strings.TrimSpace(doc.Cases[i].Name)
		if name == "" {
			name = fmt.Sprintf("case %d", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("suite: duplicate case name %q", name)
		}
		seen[name] = struct{}{}
		doc.Cases[i].Name = name
	}
	return doc.Cases, nil
}

// Default returns the built-in parameter combinations.
func Default() []Case {
	return []Case{
		{
			Name: "Sora 2 with all parameters",
			Payload: domain.GenerationRequest{
				Model:      domain.ModelSora2,
				Prompt:     "A golden retriever running in a field",
				Duration:   domain.Int(10),
				Resolution: "1280x720",
				Quality:    "standard",
				Style:      "cinematic",
				FPS:        domain.Int(30),
			},
		},
		{
			Name: "Sora 2 Pro with extended duration",
			Payload: domain.GenerationRequest{
				Model:      domain.ModelSora2Pro,
				Prompt:     "Time-lapse of clouds over mountains",
				Duration:   domain.Int(30),
				Resolution: "1920x1080",
				Quality:    "high",
				Style:      "documentary",
				FPS:        domain.Int(60),
			},
		},
		{
			Name: "Minimal parameters (Sora 2)",
			Payload: domain.GenerationRequest{
				Model:  domain.ModelSora2,
				Prompt: "A red ball rolling",
			},
		},
		{
			Name: "Portrait aspect ratio (9:16)",
			Payload: domain.GenerationRequest{
				Model:      domain.ModelSora2,
				Prompt:     "Close-up of coffee being poured",
				Duration:   domain.Int(8),
				Resolution: "720x1280",
				Quality:    "standard",
			},
		},
		{
			Name: "Square aspect ratio (1:1)",
			Payload: domain.GenerationRequest{
				Model:      domain.ModelSora2,
				Prompt:     "Rotating product showcase",
				Duration:   domain.Int(10),
				Resolution: "1080x1080",
				Style:      "cinematic",
			},
		},
	}
}
