package wordlist

import (
	"strings"
	"testing"
)

func TestValidLabel(t *testing.T) {
	valid := []string{"www", "mail-server", "a", "x0", "API7", strings.Repeat("a", 63)}
	for _, w := range valid {
		if !ValidLabel(w) {
			t.Errorf("ValidLabel(%q) = false, want true", w)
		}
	}

	invalid := []string{"", "-edge", "edge-", "under_score", "dot.ted", "has space", strings.Repeat("a", 64)}
	for _, w := range invalid {
		if ValidLabel(w) {
			t.Errorf("ValidLabel(%q) = true, want false", w)
		}
	}
}

func TestAppendBackupVariants(t *testing.T) {
	got := AppendBackupVariants([]string{"config"})

	want := []string{"config", "config.bak", "config.backup", "config.old", "config.orig", "config.save", "config.swp", "config.tmp", "config~"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAppendBackupVariantsDeduplicates(t *testing.T) {
	got := AppendBackupVariants([]string{"config", "config.bak"})
	seen := make(map[string]int)
	for _, e := range got {
		seen[e]++
	}
	if seen["config.bak"] != 1 {
		t.Errorf("config.bak appears %d times, want 1", seen["config.bak"])
	}
}
