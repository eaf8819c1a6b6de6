package generr

import (
	"context"
	"sort"
	"sync"

	"goa.design/clue/log"
)

// Diagnostic is a recorded, non-fatal problem.
type Diagnostic struct {
	Code    Code
	Message string
	Pointer string
}

// Diagnostics collects diagnostics for one run. It is safe for concurrent use.
type Diagnostics struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Warn records d and logs it at warning level.
func (ds *Diagnostics) Warn(ctx context.Context, d Diagnostic) {
	ds.mu.Lock()
	ds.items = append(ds.items, d)
	ds.mu.Unlock()

	fields := []log.Fielder{log.KV{K: "msg", V: d.Message}, log.KV{K: "code", V: string(d.Code)}}
	if d.Pointer != "" {
		fields = append(fields, log.KV{K: "pointer", V: d.Pointer})
	}
	log.Warn(ctx, fields...)
}

// All returns a copy of the recorded diagnostics sorted by pointer, then
// code and message, so the result does not depend on which task recorded
// first.
func (ds *Diagnostics) All() []Diagnostic {
	ds.mu.Lock()
	out := append([]Diagnostic(nil), ds.items...)
	ds.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pointer != b.Pointer {
			return a.Pointer < b.Pointer
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
	return out
}

// Len returns the number of recorded diagnostics.
func (ds *Diagnostics) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.items)
}
