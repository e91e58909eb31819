package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"soraprobe/internal/report"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	f.body, _ = io.ReadAll(input.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{}, nil
}

func TestS3StoreSaveReport(t *testing.T) {
	up := &fakeUploader{}
	store := newS3Store("probe-reports", "/nightly/", up)

	loc, err := store.SaveReport(context.Background(), report.Report{RunID: "run-7", ExitCode: 1})
	if err != nil {
		t.Fatalf("SaveReport returned error: %v", err)
	}
	if loc != "s3://probe-reports/nightly/reports/run-7.json" {
		t.Fatalf("location = %q", loc)
	}
	if aws.ToString(up.input.Bucket) != "probe-reports" || aws.ToString(up.input.Key) != "nightly/reports/run-7.json" {
		t.Fatalf("unexpected input: bucket=%q key=%q", aws.ToString(up.input.Bucket), aws.ToString(up.input.Key))
	}
	if aws.ToString(up.input.ContentType) != "application/json" {
		t.Fatalf("content type = %q", aws.ToString(up.input.ContentType))
	}
	var rep report.Report
	if err := json.Unmarshal(up.body, &rep); err != nil || rep.ExitCode != 1 {
		t.Fatalf("uploaded body not a report: %v %+v", err, rep)
	}
}

func TestS3StoreErrors(t *testing.T) {
	if _, err := NewS3Store(S3Config{}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
	store := newS3Store("b", "", &fakeUploader{err: errors.New("denied")})
	if _, err := store.SaveReport(context.Background(), report.Report{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
	if _, err := store.SaveReport(context.Background(), report.Report{RunID: "x"}); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestNewS3StoreBuildsClient(t *testing.T) {
	store, err := NewS3Store(S3Config{Bucket: "b", Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "s"})
	if err != nil {
		t.Fatalf("NewS3Store returned error: %v", err)
	}
	if store.key("r") != "reports/r.json" {
		t.Fatalf("key = %q", store.key("r"))
	}
}
