package engine

import (
	"strings"
	"sync"
)

// recursionController decides when an accepted directory-mode finding
// spawns a new generation at depth+1. The visited set guarantees at most
// one expansion per canonical scope even when several workers discover the
// same directory concurrently: LoadOrStore is the atomic check-then-insert.
type recursionController struct {
	maxDepth int
	factory  func(scope string, depth int) Generator
	visited  sync.Map // canonical scope -> struct{}
}

func newRecursionController(maxDepth int, factory func(string, int) Generator) *recursionController {
	return &recursionController{maxDepth: maxDepth, factory: factory}
}

// markVisited pre-seeds the visited set, used for the session's initial
// scope so a redirect loop back to the root cannot re-expand it.
func (r *recursionController) markVisited(scope string) {
	r.visited.Store(scope, struct{}{})
}

// consider returns a generator for the finding's child scope, or nil when
// the finding is not recursion-eligible or the scope was already expanded.
func (r *recursionController) consider(out *Outcome) Generator {
	if out.Descriptor.Mode != ModeDir {
		return nil
	}
	if out.Descriptor.Depth >= r.maxDepth {
		return nil
	}
	if !LooksLikeDirectory(out) {
		return nil
	}
	scope := CanonicalScope(out.Descriptor.Path)
	if _, seen := r.visited.LoadOrStore(scope, struct{}{}); seen {
		return nil
	}
	return r.factory(scope, out.Descriptor.Depth+1)
}

// CanonicalScope normalizes a directory path into a scope key: no leading
// slash, exactly one trailing slash.
func CanonicalScope(path string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// LooksLikeDirectory reports whether an outcome's classification suggests a
// traversable container: an explicit trailing slash, a redirect appending
// "/", or an extensionless 2xx path.
func LooksLikeDirectory(out *Outcome) bool {
	if strings.HasSuffix(out.Descriptor.Path, "/") {
		return true
	}
	if out.StatusCode >= 300 && out.StatusCode < 400 {
		if strings.HasSuffix(out.RedirectURL, out.Descriptor.Path+"/") ||
			strings.HasSuffix(out.RedirectURL, "/") {
			return true
		}
	}
	if out.StatusCode >= 200 && out.StatusCode < 300 {
		lastSegment := out.Descriptor.Path
		if idx := strings.LastIndex(lastSegment, "/"); idx >= 0 {
			lastSegment = lastSegment[idx+1:]
		}
		return !strings.Contains(lastSegment, ".")
	}
	return false
}
