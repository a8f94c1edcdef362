package wireless

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitoori/squirt/internal/models"
)

func fixtureReader(t *testing.T) *Reader {
	t.Helper()
	dir := t.TempDir()
	return &Reader{
		SysClassNet:  filepath.Join(dir, "sys"),
		ProcWireless: filepath.Join(dir, "wireless"),
		IwPath:       filepath.Join(dir, "no-such-iw"),
	}
}

func writeOperstate(t *testing.T, r *Reader, iface, state string) {
	t.Helper()
	dir := filepath.Join(r.SysClassNet, iface)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "operstate"), []byte(state+"\n"), 0o644))
}

func TestState(t *testing.T) {
	r := fixtureReader(t)

	writeOperstate(t, r, "wlan0", "up")
	assert.Equal(t, models.LinkConnected, r.State("wlan0"))

	writeOperstate(t, r, "wlan0", "down")
	assert.Equal(t, models.LinkDisconnected, r.State("wlan0"))

	writeOperstate(t, r, "wlan0", "dormant")
	assert.Equal(t, models.LinkDisconnected, r.State("wlan0"))

	writeOperstate(t, r, "wlan0", "unknown")
	assert.Equal(t, models.LinkUnknown, r.State("wlan0"))
}

func TestStateMissingInterface(t *testing.T) {
	r := fixtureReader(t)
	assert.Equal(t, models.LinkUnknown, r.State("wlan9"))
}

const procWirelessSample = `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
 wlan0: 0000   54.  -56.  -256        0      0      0      0      0        0
`

func TestRSSIFromProc(t *testing.T) {
	r := fixtureReader(t)
	require.NoError(t, os.WriteFile(r.ProcWireless, []byte(procWirelessSample), 0o644))

	assert.Equal(t, -56, r.RSSI("wlan0"))
}

func TestRSSIUnknownWhenAbsent(t *testing.T) {
	r := fixtureReader(t)
	// No proc file, no iw binary.
	assert.Equal(t, models.RSSIUnknown, r.RSSI("wlan0"))
}

func TestRSSIUnknownForOtherInterface(t *testing.T) {
	r := fixtureReader(t)
	require.NoError(t, os.WriteFile(r.ProcWireless, []byte(procWirelessSample), 0o644))

	assert.Equal(t, models.RSSIUnknown, r.RSSI("wlan1"))
}

func TestIwSignalRegex(t *testing.T) {
	out := "Connected to aa:bb:cc:dd:ee:ff (on wlan0)\n\tsignal: -61 dBm\n\ttx bitrate: 72.2 MBit/s"
	m := iwSignalRe.FindStringSubmatch(out)
	require.NotNil(t, m)
	assert.Equal(t, "-61", m[1])
}
