package symbols

import (
	"path"
	"strings"
)

// Paths computes module specifiers relative to one generated module. All paths
// are slash-separated and relative to the output directory; they never touch
// the file system or the working directory.
type Paths struct {
	dir string
	ext string
}

// NewPaths returns a Paths for the module at modulePath (with or without a
// .ts extension). Specifiers get ext appended, e.g. ".js".
func NewPaths(modulePath, ext string) Paths {
	dir := path.Dir(StripExt(path.Clean("/" + modulePath)))
	return Paths{dir: dir, ext: ext}
}

// Relative returns the specifier of target as seen from the module, e.g.
// "./connect-client.default.js" or "../com/example/Pet.js".
func (p Paths) Relative(target string) string {
	target = StripExt(path.Clean("/" + target))
	from := splitPath(p.dir)
	to := splitPath(target)

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	var b strings.Builder
	ups := len(from) - common
	if ups == 0 {
		b.WriteString("./")
	}
	for i := 0; i < ups; i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(to[common:], "/"))
	b.WriteString(p.ext)
	return b.String()
}

// StripExt removes a trailing .ts or .js extension.
func StripExt(p string) string {
	for _, ext := range []string{".ts", ".js"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
