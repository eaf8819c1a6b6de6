// Package barrel generates endpoints.ts, a single entry point re-exporting
// every endpoint module as a namespace.
package barrel

import (
	"context"
	"path"
	"strings"

	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/backbone"
	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/pipeline"
	"github.com/mark3labs/oas2ts/internal/symbols"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// FileName is the output path of the barrel module.
const FileName = "endpoints.ts"

// Plugin adds the barrel module. It needs the file tags recorded by the
// backbone plugin.
type Plugin struct{}

func (Plugin) Name() string { return "barrel" }

func (Plugin) Execute(ctx context.Context, st *pipeline.Storage) error {
	v, ok := st.Get(backbone.FileTagsKey)
	tags, _ := v.(backbone.FileTags)
	if !ok || tags == nil {
		return generr.Configuration("backbone plugin should be run first")
	}
	var endpoints []*tsast.File
	for _, f := range st.Sources() {
		if f.Path == FileName {
			return generr.Naming("module %s collides with the barrel module", f.Path)
		}
		if tags[f.Path] == backbone.KindEndpoint {
			endpoints = append(endpoints, f)
		}
	}
	file, err := Build(endpoints)
	if err != nil {
		return err
	}
	log.Debug(ctx, log.KV{K: "msg", V: "barrel generated"}, log.KV{K: "endpoints", V: len(endpoints)})
	st.AddSources(file)
	return nil
}

// Build returns the barrel module over the endpoint modules. Each module is
// exported under its file name.
func Build(endpoints []*tsast.File) (*tsast.File, error) {
	table := symbols.NewTable(FileName)
	seen := map[string]string{}
	var exports []tsast.ExportDecl
	for _, f := range endpoints {
		name := exportName(f.Path)
		if prev, ok := seen[name]; ok {
			return nil, generr.Naming("endpoint modules %s and %s are both exported as %q", prev, f.Path, name)
		}
		seen[name] = f.Path
		local := table.AddNamespaceImport(table.Paths().Relative(f.Path), name)
		exports = append(exports, tsast.ExportDecl{Local: local, Exported: name})
	}
	table.Seal()
	return &tsast.File{Path: FileName, Imports: table.Imports(), Exports: exports}, nil
}

func exportName(file string) string {
	base := symbols.StripExt(path.Base(file))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r == '_' || r == '$', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
