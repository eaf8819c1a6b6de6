// Package pipeline runs generator plugins in order against a shared,
// run-scoped storage.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/spec"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// DefaultClientFile is the base name of the transport helper module.
const DefaultClientFile = "connect-client.default"

// Plugin is one generation step.
type Plugin interface {
	Name() string
	Execute(ctx context.Context, st *Storage) error
}

// Storage is shared by every plugin of a run.
type Storage struct {
	Document    *spec.Document
	Catalog     *spec.Catalog
	OutputDir   string
	ClientFile  string // output path of the transport helper module, with extension
	Diagnostics *generr.Diagnostics

	mu      sync.Mutex
	sources []*tsast.File
	values  map[string]any
}

// NewStorage returns the storage of a run over doc and cat. clientFile is
// the helper module's base name; an empty name selects DefaultClientFile.
func NewStorage(doc *spec.Document, cat *spec.Catalog, outputDir, clientFile string) *Storage {
	if clientFile == "" {
		clientFile = DefaultClientFile
	}
	return &Storage{
		Document:    doc,
		Catalog:     cat,
		OutputDir:   outputDir,
		ClientFile:  clientFile + ".ts",
		Diagnostics: &generr.Diagnostics{},
		values:      map[string]any{},
	}
}

// AddSources appends generated files.
func (s *Storage) AddSources(files ...*tsast.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, files...)
}

// Sources returns the generated files sorted by path.
func (s *Storage) Sources() []*tsast.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]*tsast.File(nil), s.sources...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Set stores a value under key for later plugins.
func (s *Storage) Set(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

// Get returns the value stored under key.
func (s *Storage) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Run executes plugins in order and stops at the first failure.
func Run(ctx context.Context, st *Storage, plugins ...Plugin) error {
	for _, p := range plugins {
		start := time.Now()
		if err := p.Execute(ctx, st); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		log.Debug(ctx, log.KV{K: "msg", V: "plugin done"}, log.KV{K: "plugin", V: p.Name()}, log.KV{K: "elapsed", V: time.Since(start).String()})
	}
	return nil
}
