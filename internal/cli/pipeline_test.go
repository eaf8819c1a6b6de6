package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalSpecYAML = "" +
	"openapi: 3.0.0\n" +
	"info:\n" +
	"  title: Test API\n" +
	"  version: '1.0.0'\n" +
	"paths:\n" +
	"  /hello:\n" +
	"    get:\n" +
	"      summary: Hello\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n"

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writeSpec(t *testing.T, dir string) string {
	t.Helper()
	specPath := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(specPath, []byte(minimalSpecYAML), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return specPath
}

// Not parallel: these tests redirect os.Stdout.

func TestGeneratePipeline_DryRun(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--out", outDir, "--dry-run"})

	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Planned writes to") {
		t.Fatalf("expected dry-run plan output, got: %s", out)
	}
	for _, want := range []string{"- connect-client.default.ts\n", "- endpoints.ts\n", "- hello.ts\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in plan, got: %s", want, out)
		}
	}
	// Dry-run should not create the directory
	if _, err := os.Stat(outDir); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_DryRun_NoBarrel(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir)

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--out", filepath.Join(dir, "out"), "--dry-run", "--barrel=false"})

	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "(2 files)") || strings.Contains(out, "endpoints.ts") {
		t.Fatalf("unexpected plan: %s", out)
	}
}

func TestGeneratePipeline_Writes(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--out", outDir, "--client-file", "http"})

	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Generated 3 files in") || !strings.Contains(out, "(1 operations)") {
		t.Fatalf("unexpected summary: %s", out)
	}

	hello, err := os.ReadFile(filepath.Join(outDir, "hello.ts"))
	if err != nil {
		t.Fatalf("read hello.ts: %v", err)
	}
	want := `import client_1 from "./http.js";
import { ClientRequestInit as ClientRequestInit_1 } from "./http.js";
async function getHello_1(init?: ClientRequestInit_1): Promise<void> { return client_1.call("GET", "/hello", {}, init); }
export { getHello_1 as getHello };
`
	if string(hello) != want {
		t.Fatalf("hello.ts mismatch:\n got: %s\nwant: %s", hello, want)
	}
	if _, err := os.Stat(filepath.Join(outDir, "http.ts")); err != nil {
		t.Fatalf("expected client module: %v", err)
	}

	// A second run refuses to overwrite without --force.
	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--out", outDir, "--client-file", "http"})
	captureStdout(func() {
		if err := root.Execute(); err == nil {
			t.Fatalf("expected error writing into a non-empty directory")
		} else if _, ok := err.(usageError); !ok {
			t.Fatalf("expected usage error, got %T: %v", err, err)
		}
	})
}

func TestGeneratePipeline_SpecError(t *testing.T) {
	dir := t.TempDir()
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", filepath.Join(dir, "missing.yaml"), "--out", filepath.Join(dir, "out")})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for missing spec")
	}
	if _, ok := err.(usageError); !ok {
		t.Fatalf("expected usage error, got %T: %v", err, err)
	}
	if !strings.HasPrefix(err.Error(), "spec: ") {
		t.Fatalf("unexpected error text: %v", err)
	}
}
