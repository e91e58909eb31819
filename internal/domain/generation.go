package domain

import "strings"

// Model identifiers accepted by the video generation endpoint.
const (
	ModelSora2    = "sora-2"
	ModelSora2Pro = "sora-2-pro"
)

const (
	// MaxPromptLength is counted in Unicode code points.
	MaxPromptLength = 500

	maxDurationSora2    = 20
	maxDurationSora2Pro = 90
)

// GenerationRequest is the JSON body sent to the video generation endpoint.
// Only Model and Prompt are mandatory; the remote service applies defaults
// for everything else.
type GenerationRequest struct {
	Model      string `json:"model" yaml:"model"`
	Prompt     string `json:"prompt" yaml:"prompt"`
	Duration   *int   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Resolution string `json:"resolution,omitempty" yaml:"resolution,omitempty" validate:"omitempty,resolution"`
	Quality    string `json:"quality,omitempty" yaml:"quality,omitempty" validate:"omitempty,oneof=standard high"`
	Style      string `json:"style,omitempty" yaml:"style,omitempty"`
	FPS        *int   `json:"fps,omitempty" yaml:"fps,omitempty" validate:"omitempty,min=1,max=120"`
}

// Int returns a pointer to v for the optional numeric fields.
func Int(v int) *int {
	return &v
}

// SupportedModels lists the accepted model identifiers.
func SupportedModels() []string {
	return []string{ModelSora2, ModelSora2Pro}
}

// IsSupportedModel reports whether model is one of SupportedModels.
func IsSupportedModel(model string) bool {
	return model == ModelSora2 || model == ModelSora2Pro
}

// MaxDuration returns the longest clip, in seconds, the model accepts.
func MaxDuration(model string) int {
	if model == ModelSora2Pro {
		return maxDurationSora2Pro
	}
	return maxDurationSora2
}

// JobStatus is the opaque JSON object returned by the submission and status
// endpoints. Only the id field is interpreted.
type JobStatus map[string]any

// ID returns the job identifier or an empty string when absent.
func (j JobStatus) ID() string {
	if j == nil {
		return ""
	}
	id, _ := j["id"].(string)
	return strings.TrimSpace(id)
}

// State returns the remote status string for display purposes.
func (j JobStatus) State() string {
	if j == nil {
		return ""
	}
	state, _ := j["status"].(string)
	return state
}

// Model is a single entry of the model listing endpoint.
type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelList mirrors the body of GET /models.
type ModelList struct {
	Data []Model `json:"data"`
}

// Matching returns the ids containing any of the given substrings, compared
// case-insensitively, in listing order.
func (l ModelList) Matching(substrings ...string) []string {
	var ids []string
	for _, m := range l.Data {
		lower := strings.ToLower(m.ID)
		for _, s := range substrings {
			if strings.Contains(lower, strings.ToLower(s)) {
				ids = append(ids, m.ID)
				break
			}
		}
	}
	return ids
}
