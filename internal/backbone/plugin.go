package backbone

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/pipeline"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// FileTagsKey is the plugin storage key of the FileTags map.
const FileTagsKey = "backbone.fileTags"

// SourceKind labels a generated file.
type SourceKind string

const (
	KindEndpoint SourceKind = "endpoint"
	KindEntity   SourceKind = "entity"
)

// FileTags maps generated file paths to their kind.
type FileTags map[string]SourceKind

// Plugin generates the endpoint modules, one per tag, and the entity modules,
// one per component schema.
type Plugin struct{}

func (Plugin) Name() string { return "backbone" }

func (Plugin) Execute(ctx context.Context, st *pipeline.Storage) error {
	if st.Catalog == nil {
		return generr.Configuration("backbone plugin needs an operation catalog")
	}
	endpoints, err := processEndpoints(ctx, st)
	if err != nil {
		return err
	}
	entities, err := processEntities(ctx, st)
	if err != nil {
		return err
	}

	tags := FileTags{}
	for _, f := range endpoints {
		if _, ok := tags[f.Path]; ok || f.Path == st.ClientFile {
			return generr.Naming("endpoint module %s is generated twice", f.Path)
		}
		tags[f.Path] = KindEndpoint
	}
	for _, f := range entities {
		if _, ok := tags[f.Path]; ok || f.Path == st.ClientFile {
			return generr.Naming("entity module %s collides with another module", f.Path)
		}
		tags[f.Path] = KindEntity
	}
	st.AddSources(endpoints...)
	st.AddSources(entities...)
	st.Set(FileTagsKey, tags)
	return nil
}

func processEndpoints(ctx context.Context, st *pipeline.Storage) ([]*tsast.File, error) {
	files := make([]*tsast.File, len(st.Catalog.Groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range st.Catalog.Groups {
		g.Go(func() error {
			f, err := NewEndpointProcessor(st.Document, group, st.ClientFile, st.Diagnostics).Process(gctx)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func processEntities(ctx context.Context, st *pipeline.Storage) ([]*tsast.File, error) {
	files := make([]*tsast.File, len(st.Catalog.Schemas))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range st.Catalog.Schemas {
		g.Go(func() error {
			f, err := NewEntityProcessor(st.Document, name).Process(gctx)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
