package tsast

// Ident is a module-level identifier. The symbol it denotes is fixed at
// creation (Key); its local spelling is bound later, once every identifier of
// the module is known, so that naming does not depend on creation order.
type Ident struct {
	key  string
	base string
	name string
}

// NewIdent creates an unbound identifier for the symbol key, spelled from base.
func NewIdent(key, base string) *Ident {
	return &Ident{key: key, base: base}
}

// Key identifies the denoted symbol, e.g. "./Pet.js#default".
func (id *Ident) Key() string { return id.key }

// Base is the unsuffixed spelling.
func (id *Ident) Base() string { return id.base }

// Bind sets the local spelling.
func (id *Ident) Bind(name string) { id.name = name }

// Bound reports whether Bind has been called.
func (id *Ident) Bound() bool { return id.name != "" }

// Name returns the bound spelling, or the base when unbound.
func (id *Ident) Name() string {
	if id.name == "" {
		return id.base
	}
	return id.name
}
