// Package resume persists which seed words of a scan finished, so an
// interrupted session can be picked up later. Only depth-0 wordlist
// entries are tracked; recursed and crawled work is re-derived from them
// on the next run.
package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// State is the on-disk progress record for one scan.
type State struct {
	Mode           string   `json:"mode"`
	Target         string   `json:"target"`
	CompletedWords []string `json:"completed_words"`
	TotalWords     int      `json:"total_words"`

	mu   sync.Mutex
	path string
	done map[string]struct{}
}

// New creates an empty state that Save will write to path.
func New(path, mode, target string, totalWords int) *State {
	return &State{
		Mode:       mode,
		Target:     target,
		TotalWords: totalWords,
		path:       path,
		done:       make(map[string]struct{}),
	}
}

// Load reads an existing state from disk. A missing file is not an error;
// it returns nil.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}

	s.path = path
	s.done = make(map[string]struct{}, len(s.CompletedWords))
	for _, w := range s.CompletedWords {
		s.done[w] = struct{}{}
	}

	return &s, nil
}

// Matches reports whether this state belongs to the given scan. Progress
// from another mode or target must not thin a fresh wordlist.
func (s *State) Matches(mode, target string) bool {
	return s.Mode == mode && s.Target == target
}

// MarkCompleted records a word as done.
func (s *State) MarkCompleted(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done[word]; !ok {
		s.done[word] = struct{}{}
		s.CompletedWords = append(s.CompletedWords, word)
	}
}

// Save writes the current state to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// FilterRemaining returns only the words not yet completed.
func (s *State) FilterRemaining(words []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var remaining []string
	for _, w := range words {
		if _, ok := s.done[w]; !ok {
			remaining = append(remaining, w)
		}
	}
	return remaining
}

// Remove deletes the resume file (called on successful completion).
func (s *State) Remove() error {
	return os.Remove(s.path)
}
