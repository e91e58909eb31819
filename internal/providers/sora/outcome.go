package sora

import (
	"fmt"
	"net/http"
	"strings"

	"soraprobe/internal/domain"
)

// Outcome is the coarse classification of a single call.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeBadRequest       Outcome = "bad_request"
	OutcomeUnauthorized     Outcome = "unauthorized"
	OutcomeForbidden        Outcome = "forbidden"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeRateLimited      Outcome = "rate_limited"
	OutcomeUnexpectedStatus Outcome = "unexpected_status"
	OutcomeTransportError   Outcome = "transport_error"
)

// Classify maps an HTTP status code onto an Outcome.
func Classify(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusBadRequest:
		return OutcomeBadRequest
	case status == http.StatusUnauthorized:
		return OutcomeUnauthorized
	case status == http.StatusForbidden:
		return OutcomeForbidden
	case status == http.StatusNotFound:
		return OutcomeNotFound
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	default:
		return OutcomeUnexpectedStatus
	}
}

// Describe returns the operator-facing explanation of an outcome.
func (o Outcome) Describe() string {
	switch o {
	case OutcomeSuccess:
		return "request accepted"
	case OutcomeBadRequest:
		return "bad request, invalid parameters"
	case OutcomeUnauthorized:
		return "authentication failed, invalid api key"
	case OutcomeForbidden:
		return "forbidden, sora 2 access not enabled for this account"
	case OutcomeNotFound:
		return "endpoint not found, sora 2 api may not be available"
	case OutcomeRateLimited:
		return "rate limited, too many requests"
	case OutcomeTransportError:
		return "network error"
	default:
		return "unexpected status"
	}
}

// Response is the raw result of one call.
type Response struct {
	StatusCode int
	Outcome    Outcome
	Header     http.Header
	Body       []byte
}

// StatusError is returned for every non-2xx response.
type StatusError struct {
	StatusCode int
	Outcome    Outcome
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	if body == "" {
		return fmt.Sprintf("sora: status %d (%s)", e.StatusCode, e.Outcome)
	}
	return fmt.Sprintf("sora: status %d (%s): %s", e.StatusCode, e.Outcome, body)
}

// Is lets callers match authentication failures with domain.ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrUnauthorized && e.Outcome == OutcomeUnauthorized
}
