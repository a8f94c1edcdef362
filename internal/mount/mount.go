// Package mount attaches the remote filesystem a replication profile may
// need. Strictly best-effort: every failure is logged and swallowed, and
// nothing here can alter the sync verdict.
package mount

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fitoori/squirt/internal/config"
)

// Preparer runs the fstab-driven mount for a configured mount point.
type Preparer struct {
	MountPath  string // mount binary, looked up on PATH
	ProcMounts string
}

// New returns a Preparer bound to the system surfaces.
func New() *Preparer {
	return &Preparer{MountPath: "mount", ProcMounts: "/proc/mounts"}
}

// Prepare attaches cfg.Point if it needs attaching. Skips silently (with
// an info line) when mounting is disabled, the mount point or binary is
// absent, or the point is already mounted. Bounded by timeout.
func (p *Preparer) Prepare(ctx context.Context, cfg config.Mount, timeout time.Duration) {
	if !cfg.Enabled || cfg.Point == "" {
		return
	}
	bin, err := exec.LookPath(p.MountPath)
	if err != nil {
		log.Printf("mount: %s not available, skipping", p.MountPath)
		return
	}
	if info, err := os.Stat(cfg.Point); err != nil || !info.IsDir() {
		log.Printf("mount: point %s absent, skipping", cfg.Point)
		return
	}
	if p.mounted(cfg.Point) {
		log.Printf("mount: %s already mounted", cfg.Point)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := exec.CommandContext(cctx, bin, cfg.Point).CombinedOutput()
	if err != nil {
		log.Printf("mount: %s: %v (%s)", cfg.Point, err, firstLine(out))
		return
	}
	log.Printf("mount: attached %s", cfg.Point)
}

func (p *Preparer) mounted(point string) bool {
	f, err := os.Open(p.ProcMounts)
	if err != nil {
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[1] == point {
			return true
		}
	}
	return false
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
