// Package tsemitter writes rendered TypeScript modules to the output
// directory.
package tsemitter

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/tsast"
)

// Options controls how generated modules are written.
type Options struct {
	OutDir string // required; target directory
	Force  bool   // write into a non-empty directory
	DryRun bool   // don't write, only plan
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the planned files in path order.
type Result struct {
	Planned []PlannedFile
}

// Emit renders every file and writes them under opts.OutDir unless DryRun
// is set. Nothing is written when a path is invalid or duplicated.
func Emit(ctx context.Context, sources []*tsast.File, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("tsemitter: OutDir is required")
	}
	files := make(map[string][]byte, len(sources))
	for _, f := range sources {
		rel, err := cleanRel(f.Path)
		if err != nil {
			return nil, err
		}
		if _, dup := files[rel]; dup {
			return nil, fmt.Errorf("tsemitter: %s is generated twice", rel)
		}
		files[rel] = tsast.Render(f)
	}

	// Plan in deterministic order
	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, p)
	}
	sort.Strings(rels)
	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(opts.OutDir, rels, files, opts.Force); err != nil {
			return nil, err
		}
		log.Debug(ctx, log.KV{K: "msg", V: "files written"}, log.KV{K: "dir", V: opts.OutDir}, log.KV{K: "count", V: len(rels)})
	}
	return &Result{Planned: planned}, nil
}

// cleanRel rejects absolute paths and paths leaving the output directory.
func cleanRel(p string) (string, error) {
	rel := path.Clean(filepath.ToSlash(p))
	if rel == "." || path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("tsemitter: invalid output path %q", p)
	}
	return rel, nil
}

func writeFiles(outDir string, rels []string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	// Pre-flight: if directory exists and not empty and not force, error.
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("tsemitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	stamp := time.Now().Format("20060102150405")
	for _, rel := range rels {
		p := filepath.Join(abs, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + stamp
		if err := os.WriteFile(tmp, files[rel], 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
