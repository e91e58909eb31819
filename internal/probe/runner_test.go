package probe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"soraprobe/internal/domain"
	"soraprobe/internal/providers/sora"
	"soraprobe/internal/report"
	"soraprobe/internal/suite"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type fakeAPI struct {
	mu       sync.Mutex
	calls    []string
	handlers map[string]func(*http.Request) (int, string)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{handlers: make(map[string]func(*http.Request) (int, string))}
}

func (f *fakeAPI) on(method, path string, status int, body string) {
	f.handlers[method+" "+path] = func(*http.Request) (int, string) { return status, body }
}

func (f *fakeAPI) RoundTrip(r *http.Request) (*http.Response, error) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.calls = append(f.calls, key)
	h, ok := f.handlers[key]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("dial tcp: connection refused")
	}
	status, body := h(r)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func (f *fakeAPI) client(t *testing.T) *sora.Client {
	t.Helper()
	client, err := sora.NewClient(sora.Options{
		APIKey:     "sk-test-key-0123456789abcdefghijklmnop",
		BaseURL:    "https://api.example.com/v1",
		HTTPClient: &http.Client{Transport: f},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func outcomes(rep report.Report) map[string]report.Outcome {
	out := make(map[string]report.Outcome, len(rep.Results))
	for _, res := range rep.Results {
		out[res.Name] = res.Outcome
	}
	return out
}

func TestRunUnauthorizedShortCircuits(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`)

	rep := NewRunner(Config{APIKey: "sk-bad", DryRun: false, Suite: suite.Default()}, api.client(t), nil).Run(context.Background())

	if rep.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", rep.ExitCode)
	}
	if len(api.calls) != 1 {
		t.Fatalf("calls = %v, want only the listing call", api.calls)
	}
	if len(rep.Results) != 2 {
		t.Fatalf("results = %+v, want authentication and accessibility only", rep.Results)
	}
	if got := outcomes(rep)[CheckAccessibility]; got != report.Failed {
		t.Fatalf("accessibility outcome = %s", got)
	}
	if rep.Results[1].StatusCode != http.StatusUnauthorized {
		t.Fatalf("status code = %d", rep.Results[1].StatusCode)
	}
}

func TestRunMissingKeyMakesNoCalls(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	rep := NewRunner(Config{Suite: suite.Default()}, api.client(t), nil).Run(context.Background())
	if rep.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", rep.ExitCode)
	}
	if len(api.calls) != 0 {
		t.Fatalf("calls = %v, want none", api.calls)
	}
	if len(rep.Results) != 1 || rep.Results[0].Name != CheckAuthentication || rep.Results[0].Outcome != report.Failed {
		t.Fatalf("unexpected results: %+v", rep.Results)
	}
}

func TestRunSubmissionWithIDPollsStatus(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusOK, `{"data":[{"id":"sora-2"}]}`)
	api.on(http.MethodPost, "/v1/video/generations", http.StatusOK, `{"id":"video_42","status":"queued"}`)
	api.on(http.MethodGet, "/v1/video/generations/video_42", http.StatusOK, `{"id":"video_42","status":"in_progress"}`)

	rep := NewRunner(Config{APIKey: "sk-live", Verbose: true, Suite: suite.Default()}, api.client(t), nil).Run(context.Background())

	want := []string{"GET /v1/models", "POST /v1/video/generations", "GET /v1/video/generations/video_42"}
	if strings.Join(api.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", api.calls, want)
	}
	got := outcomes(rep)
	for _, name := range []string{CheckAuthentication, CheckAccessibility, CheckSubmission, CheckPolling, CheckParameters} {
		if got[name] != report.Passed {
			t.Fatalf("%s = %s, want passed (results %+v)", name, got[name], rep.Results)
		}
	}
	if rep.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", rep.ExitCode)
	}
}

func TestRunSubmissionWithoutIDSkipsPolling(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusOK, `{"data":[]}`)
	api.on(http.MethodPost, "/v1/video/generations", http.StatusOK, `{"status":"queued"}`)

	rep := NewRunner(Config{APIKey: "sk-live", Suite: suite.Default()}, api.client(t), nil).Run(context.Background())

	if len(api.calls) != 2 {
		t.Fatalf("calls = %v, want listing and submission", api.calls)
	}
	if got := outcomes(rep)[CheckPolling]; got != report.Skipped {
		t.Fatalf("polling = %s, want skipped", got)
	}
	if rep.Skipped != 1 || rep.ExitCode != 0 {
		t.Fatalf("unexpected tally: %+v exit=%d", rep.Tally, rep.ExitCode)
	}
}

func TestRunDryRunDoesNotSubmit(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusOK, `{"data":[{"id":"sora-2"}]}`)

	rep := NewRunner(Config{APIKey: "sk-live", DryRun: true, Suite: suite.Default()}, api.client(t), nil).Run(context.Background())

	if len(api.calls) != 1 {
		t.Fatalf("calls = %v, want listing only", api.calls)
	}
	got := outcomes(rep)
	if got[CheckSubmission] != report.Passed || got[CheckPolling] != report.Skipped {
		t.Fatalf("unexpected outcomes: %v", got)
	}
	if !rep.DryRun || rep.ExitCode != 0 {
		t.Fatalf("unexpected report: dry_run=%t exit=%d", rep.DryRun, rep.ExitCode)
	}
}

func TestRunTransportErrorContinues(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()

	rep := NewRunner(Config{APIKey: "sk-live", DryRun: true, Suite: suite.Default()}, api.client(t), nil).Run(context.Background())

	got := outcomes(rep)
	if got[CheckAccessibility] != report.Failed {
		t.Fatalf("accessibility = %s, want failed", got[CheckAccessibility])
	}
	if got[CheckParameters] != report.Passed {
		t.Fatalf("parameters = %s, want passed", got[CheckParameters])
	}
	if rep.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", rep.ExitCode)
	}
}

func TestRunSubmissionForbiddenRecordsFailure(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusOK, `{"data":[]}`)
	api.on(http.MethodPost, "/v1/video/generations", http.StatusForbidden, `{"error":"no access"}`)

	rep := NewRunner(Config{APIKey: "sk-live", Suite: suite.Default()}, api.client(t), nil).Run(context.Background())

	var submission report.Result
	for _, res := range rep.Results {
		if res.Name == CheckSubmission {
			submission = res
		}
	}
	if submission.Outcome != report.Failed || submission.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected submission result: %+v", submission)
	}
	if submission.Detail != sora.OutcomeForbidden.Describe() {
		t.Fatalf("detail = %q", submission.Detail)
	}
	if got := outcomes(rep)[CheckPolling]; got != report.Skipped {
		t.Fatalf("polling = %s, want skipped", got)
	}
}

func TestRunSubmissionUnauthorizedShortCircuits(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusOK, `{"data":[]}`)
	api.on(http.MethodPost, "/v1/video/generations", http.StatusUnauthorized, `{}`)

	rep := NewRunner(Config{APIKey: "sk-live", Suite: suite.Default()}, api.client(t), nil).Run(context.Background())

	if _, ok := outcomes(rep)[CheckParameters]; ok {
		t.Fatal("parameter validation should not run after authentication failure")
	}
	if rep.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", rep.ExitCode)
	}
}

func TestRunInvalidPayloadIsNotSent(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusOK, `{"data":[]}`)

	cfg := Config{
		APIKey:  "sk-live",
		Payload: domain.GenerationRequest{Model: domain.ModelSora2, Prompt: strings.Repeat("x", 501)},
		Suite:   suite.Default(),
	}
	rep := NewRunner(cfg, api.client(t), nil).Run(context.Background())

	if len(api.calls) != 1 {
		t.Fatalf("calls = %v, want listing only", api.calls)
	}
	if got := outcomes(rep)[CheckSubmission]; got != report.Failed {
		t.Fatalf("submission = %s, want failed", got)
	}
	if got := outcomes(rep)[CheckParameters]; got != report.Passed {
		t.Fatalf("parameters = %s, want passed", got)
	}
}

func TestRunParameterMismatchFails(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusOK, `{"data":[]}`)
	invalid := false
	cases := append(suite.Default(),
		suite.Case{Name: "too long for sora-2", Payload: domain.GenerationRequest{Model: domain.ModelSora2, Prompt: "p", Duration: domain.Int(30)}},
		suite.Case{Name: "expected invalid", ExpectValid: &invalid, Payload: domain.GenerationRequest{Model: "sora-3", Prompt: "p"}},
	)

	rep := NewRunner(Config{APIKey: "sk-live", DryRun: true, Suite: cases}, api.client(t), nil).Run(context.Background())

	if got := outcomes(rep)[CheckParameters]; got != report.Failed {
		t.Fatalf("parameters = %s, want failed", got)
	}
	if rep.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", rep.ExitCode)
	}
}

func TestRunEmptySuiteSkipsParameters(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.on(http.MethodGet, "/v1/models", http.StatusOK, `{"data":[]}`)

	rep := NewRunner(Config{APIKey: "sk-live", DryRun: true}, api.client(t), nil).Run(context.Background())

	if got := outcomes(rep)[CheckParameters]; got != report.Skipped {
		t.Fatalf("parameters = %s, want skipped", got)
	}
}
