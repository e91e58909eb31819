package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"soraprobe/internal/report"
)

const runPrefix = "run/"

// LocalStore keeps run history in an on-disk pebble database for machines
// without Postgres. Keys sort by start time.
type LocalStore struct {
	db *pebble.DB
}

func OpenLocal(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("history: directory is required")
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("history: open local store: %w", err)
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func runKey(rep report.Report) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", runPrefix, rep.StartedAt.UnixNano(), rep.RunID))
}

func (s *LocalStore) Record(ctx context.Context, rep report.Report) error {
	if s == nil || s.db == nil {
		return errors.New("history: local store not open")
	}
	if rep.RunID == "" {
		return errors.New("history: run id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("history: encode run: %w", err)
	}
	return s.db.Set(runKey(rep), raw, pebble.Sync)
}

// Recent returns up to n runs, newest first. Undecodable entries are skipped.
func (s *LocalStore) Recent(n int) ([]report.Report, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history: local store not open")
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(runPrefix),
		UpperBound: []byte("run0"),
	})
	if err != nil {
		return nil, fmt.Errorf("history: iterate: %w", err)
	}
	defer iter.Close()

	var out []report.Report
	for iter.Last(); iter.Valid() && len(out) < n; iter.Prev() {
		var rep report.Report
		if err := json.Unmarshal(iter.Value(), &rep); err != nil {
			continue
		}
		out = append(out, rep)
	}
	return out, iter.Error()
}
