package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalScope(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"admin", "admin/"},
		{"/admin/", "admin/"},
		{"admin/config", "admin/config/"},
		{"/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalScope(tt.path), "path %q", tt.path)
	}
}

func TestLooksLikeDirectory(t *testing.T) {
	tests := []struct {
		name string
		out  Outcome
		want bool
	}{
		{
			name: "trailing slash",
			out:  Outcome{Descriptor: Descriptor{Path: "admin/"}, StatusCode: 200},
			want: true,
		},
		{
			name: "redirect to path with slash",
			out:  Outcome{Descriptor: Descriptor{Path: "admin"}, StatusCode: 301, RedirectURL: "http://example.com/admin/"},
			want: true,
		},
		{
			name: "200 without dot in last segment",
			out:  Outcome{Descriptor: Descriptor{Path: "api/users"}, StatusCode: 200},
			want: true,
		},
		{
			name: "200 with dot in last segment",
			out:  Outcome{Descriptor: Descriptor{Path: "css/style.css"}, StatusCode: 200},
			want: false,
		},
		{
			name: "404 status",
			out:  Outcome{Descriptor: Descriptor{Path: "admin"}, StatusCode: 404},
			want: false,
		},
		{
			name: "redirect not to slash",
			out:  Outcome{Descriptor: Descriptor{Path: "old"}, StatusCode: 302, RedirectURL: "http://example.com/new"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeDirectory(&tt.out))
		})
	}
}

func TestRecursionControllerExpandsOnce(t *testing.T) {
	var spawned []string
	rc := newRecursionController(3, func(scope string, depth int) Generator {
		spawned = append(spawned, scope)
		return &StaticGenerator{}
	})

	out := &Outcome{
		Descriptor: Descriptor{Mode: ModeDir, Path: "admin", Depth: 0},
		StatusCode: 200,
	}

	assert.NotNil(t, rc.consider(out))
	assert.Nil(t, rc.consider(out), "same scope must not expand twice")
	assert.Equal(t, []string{"admin/"}, spawned)
}

func TestRecursionControllerHonorsDepthCap(t *testing.T) {
	rc := newRecursionController(2, func(scope string, depth int) Generator {
		return &StaticGenerator{}
	})

	atCap := &Outcome{
		Descriptor: Descriptor{Mode: ModeDir, Path: "a/b", Depth: 2},
		StatusCode: 200,
	}
	assert.Nil(t, rc.consider(atCap))

	below := &Outcome{
		Descriptor: Descriptor{Mode: ModeDir, Path: "a/c", Depth: 1},
		StatusCode: 200,
	}
	assert.NotNil(t, rc.consider(below))
}

func TestRecursionControllerIgnoresOtherModes(t *testing.T) {
	rc := newRecursionController(3, func(string, int) Generator {
		return &StaticGenerator{}
	})
	out := &Outcome{
		Descriptor: Descriptor{Mode: ModeDNS, Host: "www.example.com"},
		StatusCode: 200,
	}
	assert.Nil(t, rc.consider(out))
}

func TestMarkVisitedBlocksSeedScope(t *testing.T) {
	rc := newRecursionController(3, func(string, int) Generator {
		return &StaticGenerator{}
	})
	rc.markVisited("admin/")

	out := &Outcome{
		Descriptor: Descriptor{Mode: ModeDir, Path: "admin", Depth: 0},
		StatusCode: 200,
	}
	assert.Nil(t, rc.consider(out))
}
