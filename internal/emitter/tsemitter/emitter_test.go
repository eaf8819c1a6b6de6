package tsemitter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/oas2ts/internal/tsast"
)

func sampleSources() []*tsast.File {
	return []*tsast.File{
		{Path: "pets.ts", Raw: "export {};\n"},
		{Path: "com/example/Pet.ts", Raw: "type Pet = {};\nexport default Pet;\n"},
		{Path: "connect-client.default.ts", Raw: "export default {};\n"},
	}
}

func TestEmit_DryRun_Plan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	res, err := Emit(context.Background(), sampleSources(), Options{OutDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	want := []string{"com/example/Pet.ts", "connect-client.default.ts", "pets.ts"}
	if len(res.Planned) != len(want) {
		t.Fatalf("planned %d files, want %d", len(res.Planned), len(want))
	}
	for i, p := range want {
		if res.Planned[i].RelPath != p {
			t.Fatalf("planned[%d] = %s, want %s", i, res.Planned[i].RelPath, p)
		}
	}
	if res.Planned[2].Size != len("export {};\n") {
		t.Fatalf("size mismatch: %+v", res.Planned[2])
	}
	// Dry-run should not have written files
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected no files written on dry-run")
	}
}

func TestEmit_WriteAndContents(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if _, err := Emit(context.Background(), sampleSources(), Options{OutDir: dir}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "com", "example", "Pet.ts"))
	if err != nil {
		t.Fatalf("read entity: %v", err)
	}
	if string(data) != "type Pet = {};\nexport default Pet;\n" {
		t.Fatalf("unexpected contents: %q", data)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestEmit_NoForce_NonEmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}
	if _, err := Emit(context.Background(), sampleSources(), Options{OutDir: dir}); err == nil {
		t.Fatalf("expected error on non-empty dir without force")
	}
	if _, err := Emit(context.Background(), sampleSources(), Options{OutDir: dir, Force: true}); err != nil {
		t.Fatalf("emit with force: %v", err)
	}
}

func TestEmit_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()
	for _, p := range []string{"../x.ts", "/abs.ts", "a/../../x.ts", ""} {
		_, err := Emit(context.Background(), []*tsast.File{{Path: p, Raw: "x"}}, Options{OutDir: t.TempDir(), DryRun: true})
		if err == nil {
			t.Fatalf("expected error for %q", p)
		}
	}
}

func TestEmit_DuplicatePath(t *testing.T) {
	t.Parallel()
	src := []*tsast.File{{Path: "a.ts", Raw: "1"}, {Path: "./a.ts", Raw: "2"}}
	if _, err := Emit(context.Background(), src, Options{OutDir: t.TempDir(), DryRun: true}); err == nil {
		t.Fatalf("expected duplicate path error")
	}
}
