package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRepositoryQueriesAreMarked(t *testing.T) {
	violations, err := lint([]string{filepath.Join("..", "..", "sqlinline")})
	if err != nil {
		t.Fatalf("lint returned error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("%s", v)
	}
}

func TestLintFindsProblems(t *testing.T) {
	dir := t.TempDir()
	src := "package q\n\n" +
		"const QOk = `--sql 11111111-2222-3333-4444-555555555555\nselect 1;`\n" +
		"const QDup = `--sql 11111111-2222-3333-4444-555555555555\nselect 2;`\n" +
		"const QBare = `select 3;`\n" +
		"const NotSQL = `hello there`\n"
	if err := os.WriteFile(filepath.Join(dir, "q.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	violations, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint returned error: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", violations)
	}
	var joined []string
	for _, v := range violations {
		joined = append(joined, v.String())
	}
	all := strings.Join(joined, "\n")
	if !strings.Contains(all, "(QBare)") || !strings.Contains(all, "marker already used by QOk (QDup)") {
		t.Fatalf("unexpected violations:\n%s", all)
	}
}

func TestDuplicatesSortByLineNumber(t *testing.T) {
	const marker = "11111111-2222-3333-4444-555555555555"
	queries := []query{
		{file: "q.go", name: "QFirst", line: 2, marker: marker},
		{file: "q.go", name: "QTen", line: 10, marker: marker},
		{file: "q.go", name: "QNine", line: 9, marker: marker},
	}

	got := duplicates(queries)
	if len(got) != 2 {
		t.Fatalf("expected 2 violations, got %v", got)
	}
	if got[0].line != 9 || got[1].line != 10 {
		t.Fatalf("violations out of order: %v", got)
	}
}
