package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestParseAccountDefaults(t *testing.T) {
	acct, err := ParseAccount(`
server = 36

[cookies]
b = "2"
a = "1"
`)
	require.NoError(t, err)
	require.Equal(t, uint32(36), acct.Server)
	require.Equal(t, []Cookie{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}, acct.Cookies)
	require.Equal(t, DefaultClientConfig(), acct.Client)
}

func TestParseAccountClientOverrides(t *testing.T) {
	acct, err := ParseAccount(`
server_url = "http://127.0.0.1:8080/"

[cookies]
sid = "x"

[client]
timeout = "5s"
min_pause = "0s"
max_pause = "10ms"
flash_version = "11,0,0,1"
max_response_bytes = 1024
`)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080", acct.ServerURL)
	require.Equal(t, 5*time.Second, acct.Client.Timeout)
	require.Equal(t, time.Duration(0), acct.Client.MinPause)
	require.Equal(t, 10*time.Millisecond, acct.Client.MaxPause)
	require.Equal(t, "11,0,0,1", acct.Client.FlashVersion)
	require.Equal(t, int64(1024), acct.Client.MaxResponseBytes)
}

func TestParseAccountCollectsEveryProblem(t *testing.T) {
	_, err := ParseAccount(`
[client]
timeout = "soon"
max_pause = "later"
`)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 2)

	_, err = ParseAccount(`
[client]
min_pause = "2s"
max_pause = "1s"
`)
	require.ErrorAs(t, err, &merr)
	// missing server, missing cookies, bad pause range
	require.Len(t, merr.Errors, 3)
}

func TestResolveAccountPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alice.toml")
	require.NoError(t, os.WriteFile(path, []byte(Template()), 0o600))

	got, err := ResolveAccountPath("", path)
	require.NoError(t, err)
	require.Equal(t, path, got)

	got, err = ResolveAccountPath(filepath.Join(dir, "alice"), "")
	require.NoError(t, err)
	require.Equal(t, path, got)

	_, err = ResolveAccountPath("", "")
	require.ErrorIs(t, err, ErrNoAccount)

	_, err = ResolveAccountPath("bob", "")
	require.ErrorIs(t, err, ErrAccountMissing)
}

func TestTemplateLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acct.toml")
	require.NoError(t, WriteTemplate(path, false))
	require.Error(t, WriteTemplate(path, false))

	acct, err := LoadAccount(path)
	require.NoError(t, err)
	require.Equal(t, uint32(36), acct.Server)
	require.Len(t, acct.Cookies, 2)
}
