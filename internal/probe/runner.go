// Package probe runs the sequential diagnostic checks against the video
// generation API. Each check makes at most one outbound call; nothing is
// retried.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"soraprobe/internal/domain"
	"soraprobe/internal/infra"
	"soraprobe/internal/infra/credentials"
	"soraprobe/internal/providers/sora"
	"soraprobe/internal/report"
)

// API is the subset of the remote client the checks need.
type API interface {
	BaseURL() string
	ListModels(ctx context.Context) (*domain.ModelList, *sora.Response, error)
	CreateGeneration(ctx context.Context, req domain.GenerationRequest) (domain.JobStatus, *sora.Response, error)
	GetGeneration(ctx context.Context, id string) (domain.JobStatus, *sora.Response, error)
}

// Runner executes one diagnostic run. It is not reusable.
type Runner struct {
	cfg        Config
	api        API
	logger     *infra.Logger
	rep        *report.Reporter
	authFailed bool
}

func NewRunner(cfg Config, api API, logger *infra.Logger) *Runner {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	if cfg.Payload.Model == "" && cfg.Payload.Prompt == "" {
		cfg.Payload = DefaultPayload()
	}
	return &Runner{cfg: cfg, api: api, logger: logger, rep: report.New()}
}

// Run executes every check in order and returns the report. An
// authentication failure stops the run; later checks are not attempted.
func (r *Runner) Run(ctx context.Context) report.Report {
	started := time.Now()
	runID := uuid.NewString()
	r.logger.Info().
		Str("run_id", runID).
		Bool("dry_run", r.cfg.DryRun).
		Bool("verbose", r.cfg.Verbose).
		Msg("starting sora 2 api checks")

	r.checkCredential()
	if r.authFailed {
		return r.stop(runID, started)
	}
	r.checkReachability(ctx)
	if r.authFailed {
		return r.stop(runID, started)
	}
	job := r.checkSubmission(ctx)
	if r.authFailed {
		return r.stop(runID, started)
	}
	r.checkStatus(ctx, job)
	r.checkParameters()

	return r.rep.Build(runID, started, r.cfg.DryRun, r.api.BaseURL())
}

func (r *Runner) stop(runID string, started time.Time) report.Report {
	r.logger.Error().Msg("stopping checks: authentication failed")
	return r.rep.Build(runID, started, r.cfg.DryRun, r.api.BaseURL())
}

func (r *Runner) checkCredential() {
	r.logger.Info().Msg("check: " + CheckAuthentication)
	key := strings.TrimSpace(r.cfg.APIKey)
	if key == "" {
		r.authFailed = true
		r.logger.Error().Err(domain.ErrMissingAPIKey).Msg("no api key provided, set OPENAI_API_KEY or pass -key")
		r.rep.Fail(CheckAuthentication, domain.ErrMissingAPIKey.Error())
		return
	}
	if !strings.HasPrefix(key, "sk-") {
		r.logger.Warn().Msg("api key format looks incorrect (should start with 'sk-')")
	}
	masked := credentials.MaskKey(key)
	r.logger.Info().Str("key", masked).Msg("api key present")
	r.rep.Pass(CheckAuthentication, "key "+masked)
}

func (r *Runner) checkReachability(ctx context.Context) {
	r.logger.Info().Msg("check: " + CheckAccessibility)
	start := time.Now()
	models, resp, err := r.api.ListModels(ctx)
	res := r.resultFor(CheckAccessibility, resp, err, time.Since(start))
	if err != nil {
		r.rep.Record(res)
		return
	}
	res.Detail = "api accessible"
	r.rep.Record(res)
	r.logger.Info().Int("models", len(models.Data)).Msg("api accessible")
	if r.cfg.Verbose {
		for _, id := range models.Matching("sora", "video") {
			r.logger.Debug().Str("model", id).Msg("video model available")
		}
	}
}

func (r *Runner) checkSubmission(ctx context.Context) domain.JobStatus {
	r.logger.Info().Msg("check: " + CheckSubmission)
	payload := r.cfg.Payload
	if r.cfg.Verbose {
		if raw, err := json.Marshal(payload); err == nil {
			r.logger.Debug().RawJSON("payload", raw).Msg("request payload")
		}
	}
	if err := domain.Validate(payload); err != nil {
		r.logger.Error().Err(err).Msg("submission payload rejected locally")
		r.rep.Fail(CheckSubmission, err.Error())
		return nil
	}
	if r.cfg.DryRun {
		r.logger.Warn().Msg("dry run enabled, not calling the generation endpoint")
		r.rep.Pass(CheckSubmission, "dry run: payload validated")
		return nil
	}

	start := time.Now()
	job, resp, err := r.api.CreateGeneration(ctx, payload)
	res := r.resultFor(CheckSubmission, resp, err, time.Since(start))
	if err != nil {
		r.rep.Record(res)
		return nil
	}
	res.Detail = "job accepted"
	if id := job.ID(); id != "" {
		res.Detail = "job " + id + " accepted"
	}
	r.rep.Record(res)
	r.logger.Info().Str("job_id", job.ID()).Str("status", job.State()).Msg("video generation request accepted")
	return job
}

func (r *Runner) checkStatus(ctx context.Context, job domain.JobStatus) {
	r.logger.Info().Msg("check: " + CheckPolling)
	id := job.ID()
	if id == "" {
		r.logger.Warn().Msg("no job id returned, skipping polling check")
		r.rep.Skip(CheckPolling, "no job id returned")
		return
	}
	start := time.Now()
	status, resp, err := r.api.GetGeneration(ctx, id)
	res := r.resultFor(CheckPolling, resp, err, time.Since(start))
	if err == nil {
		res.Detail = "job " + id + " status " + status.State()
		r.logger.Info().Str("job_id", id).Str("status", status.State()).Msg("polling endpoint accessible")
	}
	r.rep.Record(res)
}

func (r *Runner) checkParameters() {
	r.logger.Info().Msg("check: " + CheckParameters)
	if len(r.cfg.Suite) == 0 {
		r.logger.Warn().Msg("no parameter cases configured")
		r.rep.Skip(CheckParameters, "no parameter cases")
		return
	}
	mismatches := 0
	for _, c := range r.cfg.Suite {
		err := domain.Validate(c.Payload)
		valid := err == nil
		evt := r.logger.Info()
		if valid != c.Expected() {
			mismatches++
			evt = r.logger.Error()
		}
		if err != nil {
			evt = evt.Str("reason", err.Error())
		}
		evt.Str("case", c.Name).Bool("valid", valid).Bool("expected_valid", c.Expected()).Msg("parameter case")
	}
	if mismatches > 0 {
		r.rep.Fail(CheckParameters, plural(mismatches, "case")+" did not match expectation")
		return
	}
	r.rep.Pass(CheckParameters, plural(len(r.cfg.Suite), "case")+" matched expectation")
}

// resultFor turns a call result into a report entry and flags
// authentication failures.
func (r *Runner) resultFor(name string, resp *sora.Response, err error, elapsed time.Duration) report.Result {
	res := report.Result{Name: name, Outcome: report.Passed, Duration: elapsed}
	if resp != nil {
		res.StatusCode = resp.StatusCode
	}
	if err == nil {
		return res
	}
	res.Outcome = report.Failed
	outcome := sora.OutcomeTransportError
	if resp != nil {
		outcome = resp.Outcome
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		r.authFailed = true
	}
	res.Detail = outcome.Describe()
	if outcome == sora.OutcomeSuccess {
		res.Detail = "unreadable response body"
	}
	evt := r.logger.Error().Err(err).Str("outcome", string(outcome))
	if resp != nil && resp.StatusCode != 0 {
		evt = evt.Int("status", resp.StatusCode)
		if r.cfg.Verbose && len(resp.Body) > 0 {
			r.logger.Debug().Str("body", string(resp.Body)).Msg("response body")
		}
	}
	evt.Msg(name + " failed: " + res.Detail)
	return res
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
