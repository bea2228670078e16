package probe

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/process"
)

// Handle identifies the set of processes observed for a name at one point in
// time: the matching pids in ascending order, space separated, the way pidof
// prints them. The zero value means no process was found. Handles are only
// meaningful for equality.
type Handle string

// Absent reports whether no matching process was found.
func (h Handle) Absent() bool { return h == "" }

// ProcessLister returns the current process table. It exists so tests can
// substitute a fixed table.
type ProcessLister func(ctx context.Context) ([]*process.Process, error)

// ProcessProbe looks processes up by exact binary name.
type ProcessProbe struct {
	list ProcessLister
	log  *slog.Logger
}

// NewProcessProbe returns a probe backed by the OS process table.
func NewProcessProbe() *ProcessProbe {
	return &ProcessProbe{list: process.ProcessesWithContext}
}

// WithLogger sets the logger enumeration failures are reported to.
func (p *ProcessProbe) WithLogger(l *slog.Logger) *ProcessProbe {
	p.log = l
	return p
}

// Probe returns the handle for every running process named name. Any failure
// to enumerate processes is reported as an absent handle.
func (p *ProcessProbe) Probe(ctx context.Context, name string) Handle {
	if name == "" {
		return ""
	}
	procs, err := p.list(ctx)
	if err != nil {
		logger(p.log).Debug("probe: listing processes failed", "error", err)
		return ""
	}

	var pids []int
	for _, proc := range procs {
		n, err := proc.NameWithContext(ctx)
		if err != nil {
			// Exited between listing and inspection.
			continue
		}
		if n == name || truncatedMatch(ctx, proc, n, name) {
			pids = append(pids, int(proc.Pid))
		}
	}
	return handleFromPIDs(pids)
}

// commLen is the length Linux truncates process names to.
const commLen = 15

// truncatedMatch handles names longer than the kernel's comm field by
// falling back to the executable's base name.
func truncatedMatch(ctx context.Context, proc *process.Process, got, want string) bool {
	if len(want) <= commLen || len(got) != commLen || !strings.HasPrefix(want, got) {
		return false
	}
	exe, err := proc.ExeWithContext(ctx)
	if err != nil {
		return false
	}
	return filepath.Base(exe) == want
}

func handleFromPIDs(pids []int) Handle {
	if len(pids) == 0 {
		return ""
	}
	sort.Ints(pids)
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = strconv.Itoa(pid)
	}
	return Handle(strings.Join(parts, " "))
}
