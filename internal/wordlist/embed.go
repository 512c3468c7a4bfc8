package wordlist

import _ "embed"

// Small built-in fallbacks so the tool works without any -w flag. Serious
// scans should bring their own lists.

//go:embed data/common.txt
var embeddedWordlist string

//go:embed data/subdomains.txt
var embeddedVHostWordlist string
