// Package httpcoro implements a Content-Length-framed HTTP/1.1 codec and
// a two-tier router, grounded on the source's http.hpp HTTPHeaderBody,
// HTTPRequest/HTTPResponse, and Router.
package httpcoro

import "strings"

// Header is a case-insensitive, order-preserving header set: lookups
// fold case, but Keys returns names in first-seen spelling, the same
// tradeoff the source's HTTPHeaderBody makes by storing a
// case-insensitive map while remembering the original header text.
type Header struct {
	order []string          // first-seen spelling, in insertion order
	vals  map[string]string // lower(name) -> value
}

// NewHeader returns an empty Header set.
func NewHeader() *Header {
	return &Header{vals: make(map[string]string)}
}

// Set stores value under name, preserving name's original spelling the
// first time it is seen; subsequent sets of the same name (by fold)
// overwrite the value only.
func (h *Header) Set(name, value string) {
	key := strings.ToLower(name)
	if _, exists := h.vals[key]; !exists {
		h.order = append(h.order, name)
	}
	h.vals[key] = value
}

// Get returns the value stored for name, folding case, and whether it
// was present at all.
func (h *Header) Get(name string) (string, bool) {
	v, ok := h.vals[strings.ToLower(name)]
	return v, ok
}

// Keys returns header names in first-seen order.
func (h *Header) Keys() []string {
	return h.order
}

// Request is a parsed HTTP/1.1 request.
type Request struct {
	Method string
	Target string
	Header *Header
	Body   []byte
}

// Response is an HTTP/1.1 response awaiting serialization.
type Response struct {
	Status int
	Header *Header
	Body   []byte
}

// NewResponse builds a Response with status and an empty header set.
func NewResponse(status int) *Response {
	return &Response{Status: status, Header: NewHeader()}
}
