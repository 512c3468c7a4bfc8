package wordlist

// ValidLabel reports whether a wordlist entry can be used as a DNS label:
// 1-63 characters from [a-zA-Z0-9-], not starting or ending with a hyphen.
func ValidLabel(word string) bool {
	if len(word) == 0 || len(word) > 63 {
		return false
	}
	if word[0] == '-' || word[len(word)-1] == '-' {
		return false
	}
	for i := 0; i < len(word); i++ {
		c := word[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// backupSuffixes are appended to every entry when backup-extension
// expansion is enabled, to catch editor and deployment leftovers.
var backupSuffixes = []string{".bak", ".backup", ".old", ".orig", ".save", ".swp", ".tmp", "~"}

// AppendBackupVariants returns entries followed by their backup-suffix
// variants, de-duplicated while preserving order.
func AppendBackupVariants(entries []string) []string {
	seen := make(map[string]struct{}, len(entries)*(len(backupSuffixes)+1))
	out := make([]string, 0, len(entries)*(len(backupSuffixes)+1))
	add := func(e string) {
		if _, ok := seen[e]; !ok {
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	for _, e := range entries {
		add(e)
		for _, suffix := range backupSuffixes {
			add(e + suffix)
		}
	}
	return out
}
