package filter

import "github.com/omnibust/omnibust/internal/engine"

// SizeFilter rejects outcomes by response body size: any size in the
// exclude set is rejected, and if a match set is given, any size outside
// it is rejected.
type SizeFilter struct {
	exclude map[int64]struct{}
	match   map[int64]struct{}
}

// NewSizeFilter creates a content-length filter from exclude and match
// size sets; either may be empty.
func NewSizeFilter(exclude, match []int) *SizeFilter {
	f := &SizeFilter{
		exclude: make(map[int64]struct{}, len(exclude)),
		match:   make(map[int64]struct{}, len(match)),
	}
	for _, s := range exclude {
		f.exclude[int64(s)] = struct{}{}
	}
	for _, s := range match {
		f.match[int64(s)] = struct{}{}
	}
	return f
}

func (f *SizeFilter) Name() string { return "size" }

func (f *SizeFilter) ShouldFilter(out *engine.Outcome) bool {
	if _, ok := f.exclude[out.ContentLength]; ok {
		return true
	}
	if len(f.match) > 0 {
		_, ok := f.match[out.ContentLength]
		return !ok
	}
	return false
}
