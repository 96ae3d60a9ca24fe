package navigation

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// HistoryMode selects how address changes are recorded
type HistoryMode int

const (
	// HistoryPush appends every change so back-navigation replays prior chapters
	HistoryPush HistoryMode = iota
	// HistoryReplace overwrites the current entry
	HistoryReplace
)

// String returns the mode name
func (m HistoryMode) String() string {
	if m == HistoryReplace {
		return "replace"
	}
	return "push"
}

// ParseHistoryMode parses "push" or "replace"
func ParseHistoryMode(s string) (HistoryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "push":
		return HistoryPush, nil
	case "replace":
		return HistoryReplace, nil
	default:
		return HistoryPush, fmt.Errorf("unknown history mode %q", s)
	}
}

// History is the address bar: a stack of addresses changed without reload
type History interface {
	Push(u *url.URL)
	Replace(u *url.URL)
	Current() *url.URL
}

// MemoryHistory keeps the address stack in memory
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []*url.URL
}

// NewMemoryHistory creates a history whose only entry is initial
func NewMemoryHistory(initial *url.URL) *MemoryHistory {
	if initial == nil {
		initial = &url.URL{Path: "/"}
	}
	return &MemoryHistory{entries: []*url.URL{cloneURL(initial)}}
}

// Push appends an entry
func (h *MemoryHistory) Push(u *url.URL) {
	h.mu.Lock()
	h.entries = append(h.entries, cloneURL(u))
	h.mu.Unlock()
}

// Replace overwrites the current entry
func (h *MemoryHistory) Replace(u *url.URL) {
	h.mu.Lock()
	h.entries[len(h.entries)-1] = cloneURL(u)
	h.mu.Unlock()
}

// Current returns a copy of the current entry
func (h *MemoryHistory) Current() *url.URL {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneURL(h.entries[len(h.entries)-1])
}

// Len returns the number of entries
func (h *MemoryHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Pop drops the current entry and returns the new current one
// The first entry is never dropped
func (h *MemoryHistory) Pop() (*url.URL, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) <= 1 {
		return cloneURL(h.entries[0]), false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return cloneURL(h.entries[len(h.entries)-1]), true
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return &url.URL{Path: "/"}
	}
	cp := *u
	if u.User != nil {
		user := *u.User
		cp.User = &user
	}
	return &cp
}
