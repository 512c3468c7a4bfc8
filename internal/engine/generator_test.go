package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(g Generator) []Descriptor {
	var out []Descriptor
	g.Generate(context.Background(), func(d Descriptor) bool {
		out = append(out, d)
		return true
	})
	return out
}

func TestDirGeneratorDefaultsToGet(t *testing.T) {
	g := &DirGenerator{Words: []string{"admin", "login"}}
	ds := collect(g)

	require.Len(t, ds, 2)
	assert.Equal(t, "GET", ds[0].Method)
	assert.Equal(t, "admin", ds[0].Path)
	assert.Equal(t, "admin", ds[0].Word)
	assert.Equal(t, ModeDir, ds[0].Mode)
	assert.Equal(t, 0, ds[0].Depth)
}

func TestDirGeneratorMethodExpansion(t *testing.T) {
	g := &DirGenerator{Words: []string{"upload"}, Methods: []string{"GET", "POST"}}
	ds := collect(g)

	require.Len(t, ds, 2)
	assert.Equal(t, "GET", ds[0].Method)
	assert.Equal(t, "POST", ds[1].Method)
	assert.Equal(t, "upload", ds[1].Path)
}

func TestDirGeneratorScopePrefix(t *testing.T) {
	g := &DirGenerator{Scope: "admin/", Words: []string{"config", "/users"}, Depth: 1}
	ds := collect(g)

	require.Len(t, ds, 2)
	assert.Equal(t, "admin/config", ds[0].Path)
	assert.Equal(t, "admin/users", ds[1].Path)
	assert.Equal(t, 1, ds[0].Depth)
	assert.Equal(t, "admin/", ds[0].Scope)
}

func TestDirGeneratorSkipsInvalidEntries(t *testing.T) {
	var skipped []string
	g := &DirGenerator{
		Words: []string{"good", "has space", "ctrl\x01char", ""},
		Skip:  func(w string) { skipped = append(skipped, w) },
	}
	ds := collect(g)

	require.Len(t, ds, 1)
	assert.Equal(t, "good", ds[0].Path)
	assert.Len(t, skipped, 3)
}

func TestDNSGeneratorBuildsHostnames(t *testing.T) {
	g := &DNSGenerator{Zone: "example.com.", Words: []string{"www", "mail"}}
	ds := collect(g)

	require.Len(t, ds, 2)
	assert.Equal(t, "www.example.com", ds[0].Host)
	assert.Equal(t, "mail.example.com", ds[1].Host)
	assert.Equal(t, ModeDNS, ds[0].Mode)
	assert.Equal(t, "example.com", ds[0].Scope)
}

func TestDNSGeneratorSkipsInvalidLabels(t *testing.T) {
	var skipped []string
	g := &DNSGenerator{
		Zone:  "example.com",
		Words: []string{"ok", "bad_label", "-edge", "also.bad"},
		Skip:  func(w string) { skipped = append(skipped, w) },
	}
	ds := collect(g)

	require.Len(t, ds, 1)
	assert.Equal(t, "ok.example.com", ds[0].Host)
	assert.Equal(t, []string{"bad_label", "-edge", "also.bad"}, skipped)
}

func TestVHostGeneratorSetsHostAndRootPath(t *testing.T) {
	g := &VHostGenerator{Domain: "example.com", Words: []string{"staging"}}
	ds := collect(g)

	require.Len(t, ds, 1)
	assert.Equal(t, "staging.example.com", ds[0].Host)
	assert.Equal(t, "/", ds[0].Path)
	assert.Equal(t, ModeVHost, ds[0].Mode)
}

func TestTemplateSubstituteAllOccurrences(t *testing.T) {
	tmpl := Template{
		Method:  "POST",
		URL:     "https://example.com/FUZZ?also=FUZZ",
		Headers: map[string]string{"X-Key": "FUZZ-suffix"},
		Body:    "payload=FUZZ",
	}

	method, rawURL, headers, body := tmpl.Substitute("admin")
	assert.Equal(t, "POST", method)
	assert.Equal(t, "https://example.com/admin?also=admin", rawURL)
	assert.Equal(t, "admin-suffix", headers["X-Key"])
	assert.Equal(t, "payload=admin", body)
}

func TestFuzzGeneratorEmitsSubstituted(t *testing.T) {
	g := &FuzzGenerator{
		Template: Template{URL: "https://example.com/?q=FUZZ"},
		Words:    []string{"one", "two"},
	}
	ds := collect(g)

	require.Len(t, ds, 2)
	assert.Equal(t, "https://example.com/?q=one", ds[0].URL)
	assert.Equal(t, "https://example.com/?q=two", ds[1].URL)
	assert.Equal(t, "https://example.com/?q=FUZZ", ds[0].Scope)
}

func TestGeneratorStopsWhenEmitReturnsFalse(t *testing.T) {
	g := &DirGenerator{Words: []string{"a", "b", "c"}}
	var n int
	g.Generate(context.Background(), func(Descriptor) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)
}

func TestGeneratorStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &DirGenerator{Words: []string{"a", "b"}}
	var n int
	g.Generate(ctx, func(Descriptor) bool {
		n++
		return true
	})
	assert.Zero(t, n)
}
