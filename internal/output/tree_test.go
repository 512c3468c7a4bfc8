package output

import (
	"strings"
	"testing"
)

func TestPrintTree(t *testing.T) {
	var sb strings.Builder
	PrintTree(&sb, []string{"admin/config", "admin", "js", "admin/config"})

	got := sb.String()
	want := "\n  Discovered directories:\n" +
		"  ├── admin\n" +
		"  │   └── config\n" +
		"  └── js\n"
	if got != want {
		t.Errorf("tree rendering mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintTreeEmpty(t *testing.T) {
	var sb strings.Builder
	PrintTree(&sb, nil)
	PrintTree(&sb, []string{"", "/"})
	if sb.Len() != 0 {
		t.Errorf("empty input must print nothing, got %q", sb.String())
	}
}
