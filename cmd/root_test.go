package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnibust/omnibust/internal/config"
)

// withFreshOpts isolates a test from the package-level option state.
func withFreshOpts(t *testing.T) {
	t.Helper()
	saved := opts
	t.Cleanup(func() { opts = saved })
	opts = config.Options{}
}

func TestApplyConfigFilePrecedence(t *testing.T) {
	withFreshOpts(t)

	cmd := &cobra.Command{Use: "scratch"}
	f := cmd.Flags()
	f.IntVarP(&opts.Threads, "threads", "t", 25, "")
	f.VarP(&intSliceValue{target: &opts.ExcludeStatus}, "exclude-status", "x", "")
	require.NoError(t, cmd.ParseFlags([]string{"--threads", "60", "-x", "404"}))

	content := "threads: 10\nexclude_status: [500]\nurl: https://file.example\n"
	path := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	require.NoError(t, applyConfigFile(cmd, path))

	assert.Equal(t, 60, opts.Threads, "explicitly set flags win over the file")
	assert.Equal(t, []int{404}, opts.ExcludeStatus)
	assert.Equal(t, "https://file.example", opts.URL, "the file fills everything else")
}

func TestApplyConfigFileFillsUnsetFlags(t *testing.T) {
	withFreshOpts(t)

	cmd := &cobra.Command{Use: "scratch"}
	cmd.Flags().IntVar(&opts.Threads, "threads", 25, "")
	require.NoError(t, cmd.ParseFlags(nil))

	path := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threads: 10\n"), 0644))

	require.NoError(t, applyConfigFile(cmd, path))
	assert.Equal(t, 10, opts.Threads)
}

func TestIntSliceValue(t *testing.T) {
	var target []int
	v := intSliceValue{target: &target}

	require.NoError(t, v.Set("200, 301,403"))
	assert.Equal(t, []int{200, 301, 403}, target)
	assert.Equal(t, "200,301,403", v.String())

	assert.Error(t, v.Set("not-a-number"))
}

func TestParseHeaders(t *testing.T) {
	withFreshOpts(t)
	saved := headerFlags
	t.Cleanup(func() { headerFlags = saved })

	headerFlags = []string{"X-Api-Key: sekrit", "Cookie: a=b"}
	require.NoError(t, parseHeaders())
	assert.Equal(t, "sekrit", opts.Headers["X-Api-Key"])
	assert.Equal(t, "a=b", opts.Headers["Cookie"])

	headerFlags = []string{"no-colon-here"}
	assert.Error(t, parseHeaders())
}

func TestValidateCommon(t *testing.T) {
	withFreshOpts(t)
	assert.NoError(t, validateCommon())

	opts.IncludeStatus = []int{200}
	opts.ExcludeStatus = []int{404}
	assert.Error(t, validateCommon(), "include and exclude are mutually exclusive")

	opts = config.Options{SortBy: "color"}
	assert.Error(t, validateCommon())

	opts = config.Options{OutputFormat: "xml"}
	assert.Error(t, validateCommon())

	opts = config.Options{SortBy: "status", OutputFormat: "json"}
	assert.NoError(t, validateCommon())
}
