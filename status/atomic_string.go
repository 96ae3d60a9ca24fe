package status

import (
	"sync/atomic"
	"unicode/utf8"
)

// MaxStringLen bounds observed string values in bytes
const MaxStringLen = 64

// AtomicString is a lock-free string cell; the zero value holds ""
type AtomicString struct {
	ptr atomic.Pointer[string]
}

// Store saves val, cut at MaxStringLen on a rune boundary
func (s *AtomicString) Store(val string) {
	if len(val) > MaxStringLen {
		cut := MaxStringLen
		for cut > 0 && !utf8.RuneStart(val[cut]) {
			cut--
		}
		val = val[:cut]
	}
	s.ptr.Store(&val)
}

// Load returns the last stored value
func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
