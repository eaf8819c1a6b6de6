package barrel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/oas2ts/internal/backbone"
	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/pipeline"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

func TestPlugin_RequiresBackbone(t *testing.T) {
	t.Parallel()
	st := pipeline.NewStorage(nil, nil, "", "")

	err := Plugin{}.Execute(context.Background(), st)
	require.Error(t, err)
	assert.ErrorIs(t, err, generr.ErrConfiguration)
	assert.Contains(t, err.Error(), "backbone plugin should be run first")
}

func TestPlugin_ExportsEndpointModulesOnly(t *testing.T) {
	t.Parallel()
	st := pipeline.NewStorage(nil, nil, "", "")
	st.AddSources(
		&tsast.File{Path: "pets.ts"},
		&tsast.File{Path: "Owner.ts"},
		&tsast.File{Path: "store-v2.ts"},
	)
	st.Set(backbone.FileTagsKey, backbone.FileTags{
		"pets.ts":     backbone.KindEndpoint,
		"store-v2.ts": backbone.KindEndpoint,
		"Owner.ts":    backbone.KindEntity,
	})

	require.NoError(t, Plugin{}.Execute(context.Background(), st))

	var barrel *tsast.File
	for _, f := range st.Sources() {
		if f.Path == FileName {
			barrel = f
		}
	}
	require.NotNil(t, barrel)
	want := `import * as pets_1 from "./pets.js";
import * as store_v2_1 from "./store-v2.js";
export { pets_1 as pets, store_v2_1 as store_v2 };
`
	assert.Equal(t, want, string(tsast.Render(barrel)))
}

func TestBuild_ExportNameClash(t *testing.T) {
	t.Parallel()
	_, err := Build([]*tsast.File{{Path: "a-b.ts"}, {Path: "a_b.ts"}})
	assert.ErrorIs(t, err, generr.ErrNaming)
}
