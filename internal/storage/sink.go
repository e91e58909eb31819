package storage

import (
	"context"

	"soraprobe/internal/report"
)

// ReportSink persists a finished run and returns where it was written.
type ReportSink interface {
	SaveReport(ctx context.Context, rep report.Report) (string, error)
}

var (
	_ ReportSink = (*FileStore)(nil)
	_ ReportSink = (*S3Store)(nil)
)
