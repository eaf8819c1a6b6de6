package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	cli "github.com/mark3labs/oas2ts/internal/cli"
)

// OpenAPI v3 spec with one tag group and one component schema
const petsSpec = "" +
	"openapi: 3.0.0\n" +
	"info:\n" +
	"  title: E2E Sample\n" +
	"  version: '1.0.0'\n" +
	"paths:\n" +
	"  /pets:\n" +
	"    get:\n" +
	"      summary: List pets\n" +
	"      operationId: listPets\n" +
	"      tags: [pets]\n" +
	"      parameters:\n" +
	"        - { name: limit, in: query, schema: { type: integer } }\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n" +
	"          content:\n" +
	"            application/json:\n" +
	"              schema:\n" +
	"                type: array\n" +
	"                items: { $ref: '#/components/schemas/Pet' }\n" +
	"components:\n" +
	"  schemas:\n" +
	"    Pet:\n" +
	"      type: object\n" +
	"      required: [name]\n" +
	"      properties:\n" +
	"        name: { type: string }\n"

// Swagger 2.0 spec, converted on load
const storeSpecV2 = "" +
	"swagger: '2.0'\n" +
	"info:\n" +
	"  title: Store\n" +
	"  version: '1.0.0'\n" +
	"paths:\n" +
	"  /store/orders/{orderId}:\n" +
	"    get:\n" +
	"      tags: [store]\n" +
	"      operationId: getOrder\n" +
	"      produces: [application/json]\n" +
	"      parameters:\n" +
	"        - { name: orderId, in: path, required: true, type: integer }\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n" +
	"          schema: { $ref: '#/definitions/Order' }\n" +
	"definitions:\n" +
	"  Order:\n" +
	"    type: object\n" +
	"    properties:\n" +
	"      id: { type: integer }\n"

func writeTempSpec(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return p
}

func runCLI(t *testing.T, args ...string) {
	t.Helper()
	root := cli.NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("cli execute %v: %v", args, err)
	}
}

func digestDir(t *testing.T, dir string) (files []string, sum string) {
	t.Helper()
	var list []string
	h := sha256.New()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		list = append(list, rel)
		// hash path + contents to be robust
		_, _ = h.Write([]byte(rel))
		b, rerr := os.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		_, _ = h.Write(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	sort.Strings(list)
	return list, hex.EncodeToString(h.Sum(nil))
}

func TestE2E_Generate_Deterministic(t *testing.T) {
	t.Parallel()
	spec := writeTempSpec(t, petsSpec)
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	runCLI(t, "generate", "--input", spec, "--out", dir1, "--force")
	runCLI(t, "generate", "--input", spec, "--out", dir2, "--force")

	files1, sum1 := digestDir(t, dir1)
	files2, sum2 := digestDir(t, dir2)
	if diff := cmp.Diff(files1, files2); diff != "" || sum1 != sum2 {
		t.Fatalf("generated outputs differ between runs (-first +second):\n%s\nsum1=%s\nsum2=%s", diff, sum1, sum2)
	}

	want := []string{"Pet.ts", "connect-client.default.ts", "endpoints.ts", "pets.ts"}
	if diff := cmp.Diff(want, files1); diff != "" {
		t.Fatalf("generated file set mismatch (-want +got):\n%s", diff)
	}

	got := readFile(t, filepath.Join(dir1, "pets.ts"))
	wantPets := `import type Pet_1 from "./Pet.js";
import client_1 from "./connect-client.default.js";
import { ClientRequestInit as ClientRequestInit_1 } from "./connect-client.default.js";
async function listPets_1(limit: number, init?: ClientRequestInit_1): Promise<Array<Pet_1>> { return client_1.call("GET", "/pets", { limit }, init); }
export { listPets_1 as listPets };
`
	if diff := cmp.Diff(wantPets, got); diff != "" {
		t.Fatalf("pets.ts mismatch (-want +got):\n%s", diff)
	}

	gotBarrel := readFile(t, filepath.Join(dir1, "endpoints.ts"))
	wantBarrel := `import * as pets_1 from "./pets.js";
export { pets_1 as pets };
`
	if diff := cmp.Diff(wantBarrel, gotBarrel); diff != "" {
		t.Fatalf("endpoints.ts mismatch (-want +got):\n%s", diff)
	}

	// Optional: type-check the output if a TypeScript compiler is available
	if os.Getenv("OAS2TS_E2E_ONLINE") == "1" && haveCmd("tsc") {
		if err := runCmdWithTimeout(dir1, 2*time.Minute, "tsc", "--noEmit", "--strict", "--target", "es2020", "--moduleResolution", "node16", "--module", "node16", "endpoints.ts"); err != nil {
			t.Fatalf("tsc failed: %v", err)
		}
	}
}

func TestE2E_Generate_SwaggerV2(t *testing.T) {
	t.Parallel()
	spec := writeTempSpec(t, storeSpecV2)
	dir := t.TempDir()

	runCLI(t, "generate", "--input", spec, "--out", dir, "--force", "--barrel=false")

	files, _ := digestDir(t, dir)
	want := []string{"Order.ts", "connect-client.default.ts", "store.ts"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("generated file set mismatch (-want +got):\n%s", diff)
	}
	got := readFile(t, filepath.Join(dir, "store.ts"))
	wantFn := `async function getOrder_1(orderId: number, init?: ClientRequestInit_1): Promise<Order_1> { return client_1.call("GET", "/store/orders/{orderId}", { orderId }, init); }`
	if !bytes.Contains([]byte(got), []byte(wantFn)) {
		t.Fatalf("store.ts missing %q:\n%s", wantFn, got)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func haveCmd(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runCmdWithTimeout(dir string, timeout time.Duration, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		// include output for diagnostics
		return &execError{err: err, output: out.String()}
	}
	return nil
}

type execError struct {
	err    error
	output string
}

func (e *execError) Error() string { return e.err.Error() + ": " + e.output }
