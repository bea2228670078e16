package probe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestProgressProbeMissingFileIsAbsent(t *testing.T) {
	p := NewProgressProbe()
	got := p.Probe(filepath.Join(t.TempDir(), "hashcat.out"))
	if got != Absent {
		t.Fatalf("expected absent, got %v", got)
	}
	if got := p.Probe(""); got != Absent {
		t.Fatalf("expected absent for unset path, got %v", got)
	}
}

func TestProgressProbeCountsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashcat.out")
	writeFile(t, path, "aad3b435:pass1\n31d6cfe0:pass2\n8846f7ea:pass3\n")

	p := NewProgressProbe()
	if got := p.Probe(path); got != Count(3) {
		t.Fatalf("expected 3 records, got %v", got)
	}
	// Probing again without changes yields the same signal.
	if got := p.Probe(path); got != Count(3) {
		t.Fatalf("expected idempotent probe, got %v", got)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("e52cac67:pass4\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	if got := p.Probe(path); got != Count(4) {
		t.Fatalf("expected 4 records after append, got %v", got)
	}
}

func TestProgressProbeUnterminatedTrailingRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashcat.out")
	writeFile(t, path, "a:1\nb:2\nc:partial")

	if got := NewProgressProbe().Probe(path); got != Count(3) {
		t.Fatalf("expected trailing partial record to count, got %v", got)
	}
}

func TestProgressProbeEmptyFileIsZeroNotAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashcat.out")
	writeFile(t, path, "")

	got := NewProgressProbe().Probe(path)
	if got != Count(0) {
		t.Fatalf("expected Count(0), got %v", got)
	}
	if got == Absent {
		t.Fatalf("empty file must not be reported as absent")
	}
}

func TestProgressProbeDirectoryIsAbsent(t *testing.T) {
	if got := NewProgressProbe().Probe(t.TempDir()); got != Absent {
		t.Fatalf("expected absent for a directory, got %v", got)
	}
}

func TestCountRecordsAcrossBufferBoundary(t *testing.T) {
	line := strings.Repeat("x", 1000) + "\n"
	n, err := countRecords(strings.NewReader(strings.Repeat(line, 100)))
	if err != nil {
		t.Fatalf("countRecords: %v", err)
	}
	if n != 100 {
		t.Fatalf("expected 100 records, got %d", n)
	}
}

func TestProgressString(t *testing.T) {
	if Absent.String() != "absent" {
		t.Fatalf("unexpected %q", Absent.String())
	}
	if Count(12).String() != "12" {
		t.Fatalf("unexpected %q", Count(12).String())
	}
}
