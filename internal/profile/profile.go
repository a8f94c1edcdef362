// Package profile reads unison replication profiles, just enough to learn
// which roots a profile replicates. Only the root and include directives
// matter here; everything else belongs to the replication tool.
package profile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// remoteSchemes are root prefixes that name a non-local transport. Roots
// using any of these never participate in the local cleanup pass.
var remoteSchemes = []string{"ssh://", "socket://", "rsync://", "http://", "https://"}

// Root is one replication root declaration.
type Root struct {
	Raw    string
	Remote bool
	Scheme string
}

// Profile is a named unison profile with its declared roots.
type Profile struct {
	Name  string
	Roots []Root
}

// maxIncludeDepth guards against include cycles in hand-edited profiles.
const maxIncludeDepth = 3

// Load reads <dir>/<name>.prf, following include directives.
func Load(dir, name string) (Profile, error) {
	p := Profile{Name: name}
	if err := p.read(dir, name, 0); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p *Profile) read(dir, name string, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("profile %s: includes nested deeper than %d", name, maxIncludeDepth)
	}

	path := filepath.Join(dir, name+".prf")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "include "); ok {
			if err := p.read(dir, strings.TrimSpace(rest), depth+1); err != nil {
				return err
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) == "root" {
			p.Roots = append(p.Roots, ParseRoot(strings.TrimSpace(value)))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read profile %s: %w", path, err)
	}
	return nil
}

// ParseRoot classifies a single root declaration.
func ParseRoot(raw string) Root {
	lower := strings.ToLower(raw)
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return Root{Raw: raw, Remote: true, Scheme: strings.TrimSuffix(scheme, "://")}
		}
	}
	// unison also accepts "//host/path" for its socket transport.
	if strings.HasPrefix(raw, "//") {
		return Root{Raw: raw, Remote: true, Scheme: "socket"}
	}
	return Root{Raw: raw}
}

// LocalRoots returns the raw paths of roots that are local and absolute.
func (p Profile) LocalRoots() []string {
	var out []string
	for _, r := range p.Roots {
		if !r.Remote && filepath.IsAbs(r.Raw) {
			out = append(out, r.Raw)
		}
	}
	return out
}
