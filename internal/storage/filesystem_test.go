package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"soraprobe/internal/report"
)

func TestSaveAndLoadReport(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	rep := report.Report{
		RunID:     "run-1",
		StartedAt: time.Date(2025, 10, 6, 12, 0, 0, 0, time.UTC),
		Results:   []report.Result{{Name: "API Authentication", Outcome: report.Passed}},
		Tally:     report.Tally{Total: 1, Passed: 1},
	}
	key, err := store.SaveReport(context.Background(), rep)
	if err != nil {
		t.Fatalf("SaveReport returned error: %v", err)
	}
	if key != "reports/run-1.json" {
		t.Fatalf("key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(store.BasePath(), "reports", "run-1.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
	loaded, err := store.LoadReport("run-1")
	if err != nil {
		t.Fatalf("LoadReport returned error: %v", err)
	}
	if loaded.Passed != 1 || len(loaded.Results) != 1 || !loaded.StartedAt.Equal(rep.StartedAt) {
		t.Fatalf("unexpected report: %+v", loaded)
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "reports/a.json", want: "reports/a.json"},
		{in: "/reports//a.json", want: "reports/a.json"},
		{in: `reports\a.json`, want: "reports/a.json"},
		{in: "./a.json", want: "a.json"},
		{in: "../etc/passwd", wantErr: true},
		{in: "reports/../../x", wantErr: true},
		{in: "  ", wantErr: true},
		{in: ".", wantErr: true},
	}
	for _, tc := range cases {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
	var store *FileStore
	if _, err := store.Write(context.Background(), "a", nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestWriteHonoursCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "a.json", []byte("{}")); err == nil {
		t.Fatal("expected context error")
	}
}
