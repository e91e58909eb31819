package probe

import (
	"soraprobe/internal/domain"
	"soraprobe/internal/suite"
)

// Check names, in execution order.
const (
	CheckAuthentication = "API Authentication"
	CheckAccessibility  = "Endpoint Accessibility"
	CheckSubmission     = "Video Generation Request"
	CheckPolling        = "Job Status Polling"
	CheckParameters     = "Parameter Validation"
)

// Config is everything a run needs; probes read nothing from globals.
type Config struct {
	APIKey string
	// DryRun validates the submission payload without sending it.
	DryRun bool
	// Verbose logs payloads, model listings and response bodies.
	Verbose bool
	// Payload is the submission probe body; zero value means DefaultPayload.
	Payload domain.GenerationRequest
	Suite   []suite.Case
}

// DefaultPayload is a cheap, valid submission.
func DefaultPayload() domain.GenerationRequest {
	return domain.GenerationRequest{
		Model:      domain.ModelSora2,
		Prompt:     "A test video of a red ball rolling on a table",
		Duration:   domain.Int(5),
		Resolution: "1280x720",
		Quality:    "standard",
	}
}
