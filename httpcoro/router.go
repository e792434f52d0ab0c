package httpcoro

import (
	"fmt"
	"strings"
)

// Handler answers one request.
type Handler func(*Request) (*Response, error)

// Any matches any method at a path that has no exact-method handler —
// the router's wildcard method, distinct from an empty string.
const Any = "*"

type node struct {
	children map[string]*node
	handlers map[string]Handler
}

func newNode() *node {
	return &node{children: make(map[string]*node), handlers: make(map[string]Handler)}
}

// Router is the two-tier table described by the codec: an exact-path
// table checked first, then a slash-segmented trie walked for the
// deepest prefix match, grounded on the source's HTTPRouter.
type Router struct {
	exact map[string]map[string]Handler
	trie  *node
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{exact: make(map[string]map[string]Handler), trie: newNode()}
}

func normalizePath(uri string) string {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}
	var b strings.Builder
	last := byte(0)
	for i := 0; i < len(uri); i++ {
		ch := uri[i]
		if last == '/' && ch == '/' {
			continue
		}
		b.WriteByte(ch)
		last = ch
	}
	return b.String()
}

func segments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Route registers handler for an exact (method, path) pair, with no
// prefix matching.
func (rt *Router) Route(method, uri string, handler Handler) error {
	if err := validateRoute(method, uri, handler); err != nil {
		return err
	}
	path := normalizePath(uri)
	if rt.exact[path] == nil {
		rt.exact[path] = make(map[string]Handler)
	}
	rt.exact[path][strings.ToUpper(method)] = handler
	return nil
}

// RoutePrefix registers handler at uri in the trie: it matches uri and
// every longer path below it that has no more specific registration.
func (rt *Router) RoutePrefix(method, uri string, handler Handler) error {
	if err := validateRoute(method, uri, handler); err != nil {
		return err
	}
	parsed := ParseURI(uri)
	if parsed.Type != Origin {
		return fmt.Errorf("httpcoro: invalid prefix path %q", uri)
	}
	if len(parsed.Params) != 0 {
		return fmt.Errorf("httpcoro: route entry cannot contain params: %q", uri)
	}

	cur := rt.trie
	for _, seg := range segments(uri) {
		next, ok := cur.children[seg]
		if !ok {
			next = newNode()
			cur.children[seg] = next
		}
		cur = next
	}
	cur.handlers[strings.ToUpper(method)] = handler
	return nil
}

func validateRoute(method, uri string, handler Handler) error {
	m := strings.ToUpper(method)
	if m != Any && !knownMethods[m] {
		return fmt.Errorf("httpcoro: invalid method %q", method)
	}
	if uri == "" {
		return fmt.Errorf("httpcoro: empty path")
	}
	if !strings.HasPrefix(uri, "/") {
		return fmt.Errorf("httpcoro: path does not start with /: %q", uri)
	}
	if strings.Contains(uri, "?") {
		return fmt.Errorf("httpcoro: path carries a query string: %q", uri)
	}
	if handler == nil {
		return fmt.Errorf("httpcoro: handler cannot be nil")
	}
	return nil
}

// Find resolves (method, uri) to a handler, or nil if nothing matches.
// It follows find_route exactly: normalized exact match for (method,
// path) then (ANY, path), retried with a trailing slash appended, and
// finally a trie walk remembering the deepest method-or-ANY handler.
func (rt *Router) Find(method, uri string) Handler {
	m := strings.ToUpper(method)
	path := normalizePath(uri)

	if h := rt.findExact(m, path); h != nil {
		return h
	}
	if !strings.HasSuffix(path, "/") {
		if h := rt.findExact(m, path+"/"); h != nil {
			return h
		}
	}

	var best Handler
	cur := rt.trie
	if h := pick(cur.handlers, m); h != nil {
		best = h
	}
	for _, seg := range segments(path) {
		next, ok := cur.children[seg]
		if !ok {
			break
		}
		cur = next
		if h := pick(cur.handlers, m); h != nil {
			best = h
		}
	}
	return best
}

func (rt *Router) findExact(method, path string) Handler {
	byMethod, ok := rt.exact[path]
	if !ok {
		return nil
	}
	return pick(byMethod, method)
}

func pick(byMethod map[string]Handler, method string) Handler {
	if h, ok := byMethod[method]; ok {
		return h
	}
	if h, ok := byMethod[Any]; ok {
		return h
	}
	return nil
}
