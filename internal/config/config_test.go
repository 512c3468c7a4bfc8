package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	content := `
url: https://example.com
threads: 50
timeout: 15s
calibrate: true
exclude_status: [404, 500]
headers:
  X-Api-Key: sekrit
format: json
`
	path := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	var opts Options
	require.NoError(t, LoadFile(path, &opts))

	assert.Equal(t, "https://example.com", opts.URL)
	assert.Equal(t, 50, opts.Threads)
	assert.Equal(t, 15*time.Second, opts.Timeout)
	assert.True(t, opts.Calibrate)
	assert.Equal(t, []int{404, 500}, opts.ExcludeStatus)
	assert.Equal(t, "sekrit", opts.Headers["X-Api-Key"])
	assert.Equal(t, "json", opts.OutputFormat)
}

func TestLoadFileKeepsUntouchedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threads: 10\n"), 0644))

	opts := Options{URL: "https://keep.me", Threads: 25}
	require.NoError(t, LoadFile(path, &opts))

	assert.Equal(t, 10, opts.Threads)
	assert.Equal(t, "https://keep.me", opts.URL, "keys absent from the file stay untouched")
}

func TestLoadFileErrors(t *testing.T) {
	var opts Options
	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &opts))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("threads: [not an int\n"), 0644))
	assert.Error(t, LoadFile(bad, &opts))
}
