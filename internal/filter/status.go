package filter

import "github.com/omnibust/omnibust/internal/engine"

// StatusFilter includes or excludes outcomes based on HTTP status codes.
// The exclude set is checked first; the include set defaults to
// include-all when empty.
type StatusFilter struct {
	include map[int]struct{}
	exclude map[int]struct{}
}

// NewStatusFilter creates a status code filter.
func NewStatusFilter(include, exclude []int) *StatusFilter {
	f := &StatusFilter{
		include: make(map[int]struct{}, len(include)),
		exclude: make(map[int]struct{}, len(exclude)),
	}
	for _, code := range include {
		f.include[code] = struct{}{}
	}
	for _, code := range exclude {
		f.exclude[code] = struct{}{}
	}
	return f
}

func (f *StatusFilter) Name() string { return "status" }

func (f *StatusFilter) ShouldFilter(out *engine.Outcome) bool {
	if len(f.exclude) > 0 {
		if _, ok := f.exclude[out.StatusCode]; ok {
			return true
		}
	}
	if len(f.include) > 0 {
		_, ok := f.include[out.StatusCode]
		return !ok // reject if NOT in include list
	}
	return false
}
