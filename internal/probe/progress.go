package probe

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// Progress is the line count of the output file, or Absent when the file does
// not exist. Absent and a present empty file are different signals.
type Progress struct {
	Present bool
	Count   int
}

// Absent is the progress signal for a missing output file.
var Absent = Progress{}

// Count returns a present signal of n records.
func Count(n int) Progress { return Progress{Present: true, Count: n} }

func (p Progress) String() string {
	if !p.Present {
		return "absent"
	}
	return strconv.Itoa(p.Count)
}

// ProgressProbe counts records in a file that another process may still be
// appending to.
type ProgressProbe struct {
	log *slog.Logger
}

// NewProgressProbe returns a ProgressProbe.
func NewProgressProbe() *ProgressProbe { return &ProgressProbe{} }

// WithLogger sets the logger read failures are reported to.
func (p *ProgressProbe) WithLogger(l *slog.Logger) *ProgressProbe {
	p.log = l
	return p
}

// Probe returns the number of newline-delimited records in path. A trailing
// record without a newline counts as one. No lock is taken, so a concurrent
// writer can cause an undercount but never an error.
func (p *ProgressProbe) Probe(path string) Progress {
	if path == "" {
		return Absent
	}
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger(p.log).Debug("probe: opening outfile failed", "path", path, "error", err)
		}
		return Absent
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return Absent
	}

	n, err := countRecords(f)
	if err != nil {
		logger(p.log).Debug("probe: reading outfile failed", "path", path, "error", err, "counted", n)
	}
	return Count(n)
}

func countRecords(r io.Reader) (int, error) {
	buf := make([]byte, 32*1024)
	count := 0
	var last byte = '\n'
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
