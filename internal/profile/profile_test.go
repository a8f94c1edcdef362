package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".prf"), []byte(body), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "backup", `
# nightly photo backup
root = /home/pi/Pictures
root = ssh://nas//volume1/photos
batch = true
ignore = Name *.tmp
`)

	p, err := Load(dir, "backup")
	require.NoError(t, err)
	require.Len(t, p.Roots, 2)
	assert.Equal(t, "/home/pi/Pictures", p.Roots[0].Raw)
	assert.False(t, p.Roots[0].Remote)
	assert.True(t, p.Roots[1].Remote)
	assert.Equal(t, "ssh", p.Roots[1].Scheme)
	assert.Equal(t, []string{"/home/pi/Pictures"}, p.LocalRoots())
}

func TestLoadInclude(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "common", "root = /srv/shared\n")
	writeProfile(t, dir, "backup", "include common\nroot = socket://nas:55000//data\n")

	p, err := Load(dir, "backup")
	require.NoError(t, err)
	require.Len(t, p.Roots, 2)
	assert.Equal(t, "/srv/shared", p.Roots[0].Raw)
	assert.True(t, p.Roots[1].Remote)
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "a", "include b\n")
	writeProfile(t, dir, "b", "include a\n")

	_, err := Load(dir, "a")
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "nope")
	assert.Error(t, err)
}

func TestParseRoot(t *testing.T) {
	cases := []struct {
		raw    string
		remote bool
		scheme string
	}{
		{"/home/pi/Pictures", false, ""},
		{"relative/path", false, ""},
		{"ssh://host//data", true, "ssh"},
		{"SSH://host//data", true, "ssh"},
		{"socket://host:5000//data", true, "socket"},
		{"rsync://host/module", true, "rsync"},
		{"http://host/path", true, "http"},
		{"https://host/path", true, "https"},
		{"//nas/volume", true, "socket"},
	}
	for _, tc := range cases {
		r := ParseRoot(tc.raw)
		assert.Equal(t, tc.remote, r.Remote, tc.raw)
		assert.Equal(t, tc.scheme, r.Scheme, tc.raw)
	}
}

func TestLocalRootsSkipsRelative(t *testing.T) {
	p := Profile{Roots: []Root{
		{Raw: "relative/dir"},
		{Raw: "/abs/dir"},
		{Raw: "ssh://host//x", Remote: true},
	}}
	assert.Equal(t, []string{"/abs/dir"}, p.LocalRoots())
}
