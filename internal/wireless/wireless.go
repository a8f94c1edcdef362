// Package wireless reads link association state and signal strength for a
// wireless interface. Everything here is best-effort: when the kernel
// surfaces are missing the caller gets unknown sentinels, never an error,
// so a headless or wired box cannot stall the pipeline.
package wireless

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fitoori/squirt/internal/models"
)

// Reader queries sysfs, procfs and iw. The path fields exist so tests can
// point it at a fixture tree.
type Reader struct {
	SysClassNet  string
	ProcWireless string
	IwPath       string
	IwTimeout    time.Duration
}

// New returns a Reader bound to the real kernel surfaces.
func New() *Reader {
	return &Reader{
		SysClassNet:  "/sys/class/net",
		ProcWireless: "/proc/net/wireless",
		IwPath:       "iw",
		IwTimeout:    2 * time.Second,
	}
}

// State reports whether iface is associated, from its sysfs operstate.
func (r *Reader) State(iface string) models.LinkState {
	raw, err := os.ReadFile(filepath.Join(r.SysClassNet, iface, "operstate"))
	if err != nil {
		return models.LinkUnknown
	}
	switch strings.TrimSpace(string(raw)) {
	case "up":
		return models.LinkConnected
	case "down", "dormant", "lowerlayerdown":
		return models.LinkDisconnected
	default:
		return models.LinkUnknown
	}
}

var iwSignalRe = regexp.MustCompile(`signal:\s*(-?\d+)\s*dBm`)

// RSSI returns the signal level for iface in dBm, or RSSIUnknown.
// /proc/net/wireless is tried first; iw is the fallback for drivers that
// do not populate it.
func (r *Reader) RSSI(iface string) int {
	if v, ok := r.rssiFromProc(iface); ok {
		return v
	}
	if v, ok := r.rssiFromIw(iface); ok {
		return v
	}
	return models.RSSIUnknown
}

// rssiFromProc parses lines like:
//
//	wlan0: 0000   54.  -56.  -256        0      0 ...
//
// where the third value is the signal level in dBm.
func (r *Reader) rssiFromProc(iface string) (int, bool) {
	raw, err := os.ReadFile(r.ProcWireless)
	if err != nil {
		return 0, false
	}
	prefix := iface + ":"
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != prefix {
			continue
		}
		level := strings.TrimSuffix(fields[3], ".")
		v, err := strconv.Atoi(level)
		if err != nil || v >= 0 || v < -120 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func (r *Reader) rssiFromIw(iface string) (int, bool) {
	if _, err := exec.LookPath(r.IwPath); err != nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.IwTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, r.IwPath, "dev", iface, "link").Output()
	if err != nil {
		return 0, false
	}
	m := iwSignalRe.FindSubmatch(out)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, false
	}
	return v, true
}
