// Package navigation resolves the initial navigation state from the address and keeps the
// address in step with every later change.
package navigation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lixenwraith/unveil/policy"
)

// Query parameter names
const (
	ParamDate    = "date"
	ParamChapter = "chapter"
	ParamFast    = "fast"
)

// Params are the recognized address parameters
// Malformed values are treated as absent
type Params struct {
	Date    string
	Chapter policy.ChapterID
	Fast    bool
}

// HasChapter reports whether a usable chapter id was requested
func (p Params) HasChapter() bool {
	return p.Chapter.Valid()
}

// ParseParams extracts parameters from an address; nil yields zero Params
func ParseParams(u *url.URL) Params {
	if u == nil {
		return Params{}
	}
	q := u.Query()

	var p Params
	p.Date = strings.TrimSpace(q.Get(ParamDate))
	if id, ok := policy.ParseChapterID(q.Get(ParamChapter)); ok {
		p.Chapter = id
	}
	p.Fast = q.Get(ParamFast) == "true"
	return p
}

// ParseAddress parses a raw address; an empty string is the bare root address
func ParseAddress(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}
	return u, nil
}

// WithChapter returns a copy of u whose chapter parameter reflects id
// NoChapter removes the parameter; every other parameter is kept
func WithChapter(u *url.URL, id policy.ChapterID) *url.URL {
	out := &url.URL{Path: "/"}
	if u != nil {
		cp := *u
		out = &cp
	}
	q := out.Query()
	if id.Valid() {
		q.Set(ParamChapter, id.String())
	} else {
		q.Del(ParamChapter)
	}
	out.RawQuery = q.Encode()
	return out
}
