// Package history keeps a log of diagnostic runs, in Postgres or in a local
// pebble database.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"soraprobe/internal/infra"
	"soraprobe/internal/report"
	"soraprobe/internal/sqlinline"
)

// Sink stores one finished run.
type Sink interface {
	Record(ctx context.Context, rep report.Report) error
}

var (
	_ Sink = (*Recorder)(nil)
	_ Sink = (*LocalStore)(nil)
)

// Recorder writes runs to the probe_runs table.
type Recorder struct {
	sql infra.SQLExecutor
}

func NewRecorder(sql infra.SQLExecutor) *Recorder {
	return &Recorder{sql: sql}
}

// EnsureSchema creates the probe_runs table when missing.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if r == nil || r.sql == nil {
		return errors.New("history: no database configured")
	}
	_, err := r.sql.Exec(ctx, sqlinline.QEnsureProbeRuns)
	return err
}

// Record stores one finished run. Results are kept as a JSON array.
func (r *Recorder) Record(ctx context.Context, rep report.Report) error {
	if r == nil || r.sql == nil {
		return errors.New("history: no database configured")
	}
	if rep.RunID == "" {
		return errors.New("history: run id is required")
	}
	results := rep.Results
	if results == nil {
		results = []report.Result{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("history: encode results: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertProbeRun,
		rep.RunID,
		rep.StartedAt,
		rep.FinishedAt,
		rep.DryRun,
		rep.BaseURL,
		rep.Total,
		rep.Passed,
		rep.Failed,
		rep.Skipped,
		rep.ExitCode,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}
	return nil
}
