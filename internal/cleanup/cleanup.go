// Package cleanup removes foreign metadata sidecars from local replication
// roots before a run, so the replication tool never ships them.
package cleanup

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fitoori/squirt/internal/profile"
)

// Stats counts the sweep's work per root and in total.
type Stats struct {
	PerRoot map[string]int
	Total   int
	Skipped []string
}

// IsSidecar reports whether a basename matches the reserved sidecar set:
// AppleDouble companions ("._<name>") and Finder droppings (".DS_Store").
func IsSidecar(name string) bool {
	return name == ".DS_Store" || (strings.HasPrefix(name, "._") && len(name) > 2)
}

// Sweep deletes sidecar files under every local, existing root. Remote
// or missing roots are noted and skipped. A single failed deletion is a
// warning, not an abort; the walk continues. The walk never leaves its
// root and only removes regular files.
func Sweep(roots []profile.Root) Stats {
	stats := Stats{PerRoot: make(map[string]int)}

	for _, root := range roots {
		if root.Remote {
			log.Printf("cleanup: skipping %s root %s", root.Scheme, root.Raw)
			stats.Skipped = append(stats.Skipped, root.Raw)
			continue
		}
		if !filepath.IsAbs(root.Raw) {
			log.Printf("cleanup: skipping non-absolute root %s", root.Raw)
			stats.Skipped = append(stats.Skipped, root.Raw)
			continue
		}
		info, err := os.Stat(root.Raw)
		if err != nil || !info.IsDir() {
			log.Printf("cleanup: root %s not present locally, skipping", root.Raw)
			stats.Skipped = append(stats.Skipped, root.Raw)
			continue
		}

		deleted := sweepRoot(root.Raw)
		stats.PerRoot[root.Raw] = deleted
		stats.Total += deleted
	}
	return stats
}

func sweepRoot(root string) int {
	deleted := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("cleanup: %s: %v", path, err)
			return nil
		}
		if !d.Type().IsRegular() || !IsSidecar(d.Name()) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			log.Printf("cleanup: remove %s: %v", path, err)
			return nil
		}
		deleted++
		return nil
	})
	if err != nil {
		log.Printf("cleanup: walk %s: %v", root, err)
	}
	return deleted
}
