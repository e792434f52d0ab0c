package httpcoro

import "strings"

// TargetType classifies a request-target per RFC 7230 §5.3.
type TargetType int

const (
	Invalid   TargetType = iota
	Origin               // /where?q=now
	Absolute             // http://www.example.org/pub/WWW/TheProject.html
	Authority            // www.example.com:80, only valid for CONNECT
	Asterisk             // *, only valid for server-side OPTIONS
)

// ParsedURI is a request-target broken into its type, path and (for
// Origin targets) query parameters.
type ParsedURI struct {
	Type   TargetType
	Path   string
	Params map[string]string
}

// ParseURI classifies and decomposes a request-target exactly the way
// the source's ParsedURI::from does, including its quirk of treating a
// "?" with no parseable key=value pairs as invalid.
func ParseURI(s string) ParsedURI {
	if s == "" {
		return ParsedURI{Type: Invalid}
	}
	if s == "*" {
		return ParsedURI{Type: Asterisk}
	}
	if !strings.Contains(s, "://") && !strings.Contains(s, "/") {
		return ParsedURI{Type: Authority, Path: s}
	}
	if strings.Contains(s, "://") {
		return ParsedURI{Type: Absolute, Path: s}
	}

	queryStart := strings.IndexByte(s, '?')
	if queryStart < 0 {
		return ParsedURI{Type: Origin, Path: s}
	}

	path := s[:queryStart]
	params := make(map[string]string)
	for _, pair := range strings.Split(s[queryStart+1:], "&") {
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		params[pair[:eq]] = pair[eq+1:]
	}
	if len(params) == 0 {
		return ParsedURI{Type: Invalid}
	}
	return ParsedURI{Type: Origin, Path: path, Params: params}
}
