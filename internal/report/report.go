// Package report accumulates probe outcomes in execution order and turns
// them into a tally and a process exit status.
package report

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Outcome is the tri-state result of one check.
type Outcome string

const (
	Passed  Outcome = "passed"
	Failed  Outcome = "failed"
	Skipped Outcome = "skipped"
)

// Result is a single named check.
type Result struct {
	Name       string        `json:"name"`
	Outcome    Outcome       `json:"outcome"`
	Detail     string        `json:"detail,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
}

// Tally counts results by outcome.
type Tally struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Report is the serializable summary of one run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`
	BaseURL    string    `json:"base_url"`
	Results    []Result  `json:"results"`
	Tally
	ExitCode int `json:"exit_code"`
}

// Reporter keeps results ordered by first record. Recording a name twice
// replaces the earlier outcome in place.
type Reporter struct {
	results []Result
	index   map[string]int
}

func New() *Reporter {
	return &Reporter{index: make(map[string]int)}
}

func (r *Reporter) Record(res Result) {
	if i, ok := r.index[res.Name]; ok {
		r.results[i] = res
		return
	}
	r.index[res.Name] = len(r.results)
	r.results = append(r.results, res)
}

func (r *Reporter) Pass(name, detail string) {
	r.Record(Result{Name: name, Outcome: Passed, Detail: detail})
}

func (r *Reporter) Fail(name, detail string) {
	r.Record(Result{Name: name, Outcome: Failed, Detail: detail})
}

func (r *Reporter) Skip(name, detail string) {
	r.Record(Result{Name: name, Outcome: Skipped, Detail: detail})
}

// Results returns a copy of the recorded results in order.
func (r *Reporter) Results() []Result {
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

func (r *Reporter) Tally() Tally {
	t := Tally{Total: len(r.results)}
	for _, res := range r.results {
		switch res.Outcome {
		case Passed:
			t.Passed++
		case Failed:
			t.Failed++
		case Skipped:
			t.Skipped++
		}
	}
	return t
}

// ExitCode is 0 when at least one check ran and none failed.
func (r *Reporter) ExitCode() int {
	t := r.Tally()
	if t.Total == 0 || t.Failed > 0 {
		return 1
	}
	return 0
}

// Build freezes the current results into a Report.
func (r *Reporter) Build(runID string, startedAt time.Time, dryRun bool, baseURL string) Report {
	return Report{
		RunID:      runID,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		DryRun:     dryRun,
		BaseURL:    baseURL,
		Results:    r.Results(),
		Tally:      r.Tally(),
		ExitCode:   r.ExitCode(),
	}
}

// Label renders an outcome for the console summary, e.g. "PASS".
func (o Outcome) Label() string {
	switch o {
	case Passed:
		return "PASS"
	case Failed:
		return "FAIL"
	default:
		return strings.ToUpper(string(o))
	}
}

// Print writes the human summary through logger.
func Print(logger zerolog.Logger, rep Report) {
	rule := strings.Repeat("=", 60)
	title := cases.Title(language.English)
	logger.Info().Msg(rule)
	logger.Info().Msg("TEST SUMMARY")
	logger.Info().Msg(rule)
	for _, res := range rep.Results {
		evt := logger.Info()
		if res.Outcome == Failed {
			evt = logger.Warn()
		}
		if res.Detail != "" {
			evt = evt.Str("detail", res.Detail)
		}
		evt.Str("outcome", title.String(string(res.Outcome))).Msgf("%s - %s", res.Outcome.Label(), res.Name)
	}
	logger.Info().Msg(rule)
	logger.Info().
		Int("total", rep.Total).
		Int("passed", rep.Passed).
		Int("failed", rep.Failed).
		Int("skipped", rep.Skipped).
		Msgf("Total: %d | Passed: %d | Failed: %d | Skipped: %d", rep.Total, rep.Passed, rep.Failed, rep.Skipped)
	if rep.ExitCode == 0 {
		logger.Info().Msg("all checks passed")
	} else {
		logger.Warn().Int("failed", rep.Failed).Msg("some checks failed")
	}
	logger.Info().Msg(rule)
}
