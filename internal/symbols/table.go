// Package symbols implements the per-module symbol table: import and export
// bookkeeping that guarantees one declaration per imported symbol, unique
// exported names and local identifiers that never clash with each other or
// with reserved (user-supplied) names.
package symbols

import (
	"sort"
	"strconv"
	"sync"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// Extension is appended to every relative module specifier.
const Extension = ".js"

type namedKey struct{ path, name string }

type exportEntry struct {
	local     *tsast.Ident
	exported  string
	isDefault bool
}

// Table is the symbol table of one generated module. All methods are safe for
// concurrent use; identifiers receive their final spelling in Seal.
type Table struct {
	mu         sync.Mutex
	module     string
	paths      Paths
	defaults   map[string]*tsast.ImportDecl
	named      map[namedKey]*tsast.ImportDecl
	namespaces map[string]*tsast.ImportDecl
	exports    map[string]*exportEntry
	hasDefault bool
	reserved   map[string]struct{}
	used       map[string]struct{}
	counters   map[string]int
}

// NewTable creates the table for the module at modulePath.
func NewTable(modulePath string) *Table {
	return &Table{
		module:     modulePath,
		paths:      NewPaths(modulePath, Extension),
		defaults:   map[string]*tsast.ImportDecl{},
		named:      map[namedKey]*tsast.ImportDecl{},
		namespaces: map[string]*tsast.ImportDecl{},
		exports:    map[string]*exportEntry{},
		reserved:   map[string]struct{}{},
		used:       map[string]struct{}{},
		counters:   map[string]int{},
	}
}

// Module returns the path of the module the table belongs to.
func (t *Table) Module() string { return t.module }

// Paths returns the path manager of the module.
func (t *Table) Paths() Paths { return t.paths }

// AddDefaultImport returns the identifier bound to the default export of the
// module at path, registering the import on first use. A value import
// supersedes an earlier type-only one.
func (t *Table) AddDefaultImport(path, name string, typeOnly bool) *tsast.Ident {
	t.mu.Lock()
	defer t.mu.Unlock()
	if imp, ok := t.defaults[path]; ok {
		imp.TypeOnly = imp.TypeOnly && typeOnly
		return imp.Local
	}
	imp := &tsast.ImportDecl{
		Kind:     tsast.ImportDefault,
		Path:     path,
		Local:    tsast.NewIdent(path+"#default", name),
		TypeOnly: typeOnly,
	}
	t.defaults[path] = imp
	return imp.Local
}

// DefaultImport returns the identifier registered for path, if any.
func (t *Table) DefaultImport(path string) (*tsast.Ident, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	imp, ok := t.defaults[path]
	if !ok {
		return nil, false
	}
	return imp.Local, true
}

// AddNamedImport returns the identifier bound to name exported by path,
// registering the import on first use.
func (t *Table) AddNamedImport(path, name string) *tsast.Ident {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := namedKey{path, name}
	if imp, ok := t.named[k]; ok {
		return imp.Local
	}
	imp := &tsast.ImportDecl{
		Kind:  tsast.ImportNamed,
		Path:  path,
		Name:  name,
		Local: tsast.NewIdent(path+"#"+name, name),
	}
	t.named[k] = imp
	return imp.Local
}

// AddNamespaceImport returns the identifier bound to `* as name` of path.
func (t *Table) AddNamespaceImport(path, name string) *tsast.Ident {
	t.mu.Lock()
	defer t.mu.Unlock()
	if imp, ok := t.namespaces[path]; ok {
		return imp.Local
	}
	imp := &tsast.ImportDecl{
		Kind:  tsast.ImportNamespace,
		Path:  path,
		Local: tsast.NewIdent(path+"#*", name),
	}
	t.namespaces[path] = imp
	return imp.Local
}

// AddExport registers a named export and returns its local binding. Exporting
// the same name twice is a naming error.
func (t *Table) AddExport(name string) (*tsast.Ident, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.exports[name]; ok {
		return nil, generr.Naming("exported name %q is already declared in %s", name, t.module)
	}
	e := &exportEntry{local: tsast.NewIdent("#export:"+name, name), exported: name}
	t.exports[name] = e
	return e.local, nil
}

// AddDefaultExport registers the default export, declared locally as name.
func (t *Table) AddDefaultExport(name string) (*tsast.Ident, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hasDefault {
		return nil, generr.Naming("default export %q conflicts with an existing default export", name)
	}
	t.hasDefault = true
	e := &exportEntry{local: tsast.NewIdent("#default:"+name, name), isDefault: true}
	t.exports["\x00default"] = e
	return e.local, nil
}

// Reserve marks names that no module-level identifier may take, such as
// function parameter names.
func (t *Table) Reserve(names ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range names {
		t.reserved[n] = struct{}{}
	}
}

// Seal binds every unbound identifier to `<base>_<n>`. Imports are bound
// first, ordered by path then name, then exports ordered by name, so the
// result depends only on the set of registered symbols.
func (t *Table) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, imp := range t.sortedImports() {
		t.bind(imp.Local)
	}
	for _, e := range t.sortedExports() {
		t.bind(e.local)
	}
}

func (t *Table) bind(id *tsast.Ident) {
	if id.Bound() {
		return
	}
	base := id.Base()
	for {
		t.counters[base]++
		candidate := base + "_" + strconv.Itoa(t.counters[base])
		if _, taken := t.used[candidate]; taken {
			continue
		}
		if _, taken := t.reserved[candidate]; taken {
			continue
		}
		t.used[candidate] = struct{}{}
		id.Bind(candidate)
		return
	}
}

// Imports returns the import declarations in deterministic order.
func (t *Table) Imports() []tsast.ImportDecl {
	t.mu.Lock()
	defer t.mu.Unlock()
	sorted := t.sortedImports()
	out := make([]tsast.ImportDecl, 0, len(sorted))
	for _, imp := range sorted {
		out = append(out, *imp)
	}
	return out
}

// Exports returns the export declarations in deterministic order.
func (t *Table) Exports() []tsast.ExportDecl {
	t.mu.Lock()
	defer t.mu.Unlock()
	sorted := t.sortedExports()
	out := make([]tsast.ExportDecl, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, tsast.ExportDecl{Local: e.local, Exported: e.exported, Default: e.isDefault})
	}
	return out
}

func (t *Table) sortedImports() []*tsast.ImportDecl {
	all := make([]*tsast.ImportDecl, 0, len(t.defaults)+len(t.named)+len(t.namespaces))
	for _, imp := range t.defaults {
		all = append(all, imp)
	}
	for _, imp := range t.namespaces {
		all = append(all, imp)
	}
	for _, imp := range t.named {
		all = append(all, imp)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Name < b.Name
	})
	return all
}

func (t *Table) sortedExports() []*exportEntry {
	all := make([]*exportEntry, 0, len(t.exports))
	for _, e := range t.exports {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].isDefault != all[j].isDefault {
			return all[i].isDefault
		}
		return all[i].exported < all[j].exported
	})
	return all
}
