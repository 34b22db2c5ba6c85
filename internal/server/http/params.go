package httpserver

import (
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// params reads request fields and remembers whether any of them was missing
// or malformed, so handlers can check once after reading everything.
type params struct {
	v   url.Values
	bad bool
}

// maxFormMemory bounds the in-memory part of a multipart body.
const maxFormMemory = 1 << 20

// readParams parses the query string of GET requests and the form body of
// everything else. Both urlencoded and multipart bodies are accepted.
func readParams(r *http.Request) (*params, bool) {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" && r.Method != http.MethodGet {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, false
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, false
	}
	if r.Method == http.MethodGet {
		return &params{v: r.URL.Query()}, true
	}
	return &params{v: r.PostForm}, true
}

func (p *params) required(key string) string {
	if !p.v.Has(key) {
		p.bad = true
		return ""
	}
	return p.v.Get(key)
}

func (p *params) optional(key string) *string {
	if !p.v.Has(key) {
		return nil
	}
	s := p.v.Get(key)
	return &s
}

func (p *params) uid(key string) uuid.UUID {
	s := p.required(key)
	if p.bad {
		return uuid.Nil
	}
	id, err := uuid.FromString(strings.TrimSpace(s))
	if err != nil {
		p.bad = true
		return uuid.Nil
	}
	return id
}

// float reads an optional number; absent or empty yields 0.
func (p *params) float(key string) float64 {
	s := strings.TrimSpace(p.v.Get(key))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.bad = true
		return 0
	}
	return f
}

func (p *params) optInt(key string) *int {
	if !p.v.Has(key) {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.v.Get(key)))
	if err != nil {
		p.bad = true
		return nil
	}
	return &n
}

func (p *params) ok() bool { return !p.bad }
