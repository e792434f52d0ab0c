package httpcoro

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LineReader is the subset of netio.Reader the codec needs: enough to
// read a request/status line and headers, then the exact body length
// Content-Length names. Declaring it locally rather than importing
// netio keeps the codec usable against any buffered source, including
// the plain in-memory fakes the tests use.
type LineReader interface {
	GetLine(delim []byte) ([]byte, error)
	GetN(n int) ([]byte, error)
}

var crlf = []byte("\r\n")

// ErrMalformed marks a hard parse failure: bad framing, an unparsable
// request line, or an invalid header.
var ErrMalformed = errors.New("httpcoro: malformed message")

var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// ParseRequest reads one Content-Length-framed HTTP/1.1 request from r.
func ParseRequest(r LineReader) (*Request, error) {
	line, err := r.GetLine(crlf)
	if err != nil {
		return nil, fmt.Errorf("%w: request line: %v", ErrMalformed, err)
	}
	fields := strings.Fields(string(line))
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: request line %q", ErrMalformed, line)
	}
	method, target, version := fields[0], fields[1], fields[2]
	if !strings.HasSuffix(version, "HTTP/1.1") {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformed, version)
	}
	if !knownMethods[strings.ToUpper(method)] {
		return nil, fmt.Errorf("%w: unknown method %q", ErrMalformed, method)
	}

	header, body, err := readHeaderBody(r)
	if err != nil {
		return nil, err
	}
	return &Request{Method: method, Target: target, Header: header, Body: body}, nil
}

// ParseResponse reads one Content-Length-framed HTTP/1.1 response from r.
func ParseResponse(r LineReader) (*Response, error) {
	line, err := r.GetLine(crlf)
	if err != nil {
		return nil, fmt.Errorf("%w: status line: %v", ErrMalformed, err)
	}
	fields := strings.SplitN(string(line), " ", 3)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/1.1") {
		return nil, fmt.Errorf("%w: status line %q", ErrMalformed, line)
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: status code %q", ErrMalformed, fields[1])
	}

	header, body, err := readHeaderBody(r)
	if err != nil {
		return nil, err
	}
	return &Response{Status: status, Header: header, Body: body}, nil
}

// readHeaderBody reads header lines until a blank CRLF, then the body if
// a Content-Length header names one — the shared tail of request and
// response framing.
func readHeaderBody(r LineReader) (*Header, []byte, error) {
	header := NewHeader()
	for {
		line, err := r.GetLine(crlf)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: header line: %v", ErrMalformed, err)
		}
		if len(line) == 0 {
			break
		}
		name, value, err := parseHeaderLine(line)
		if err != nil {
			return nil, nil, err
		}
		header.Set(name, value)
	}

	body := []byte(nil)
	if v, ok := header.Get("Content-Length"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, nil, fmt.Errorf("%w: content-length %q", ErrMalformed, v)
		}
		if n > 0 {
			body, err = r.GetN(n)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: body: %v", ErrMalformed, err)
			}
		}
	}
	return header, body, nil
}

func parseHeaderLine(line []byte) (name, value string, err error) {
	i := indexByte(line, ':')
	if i < 0 {
		return "", "", fmt.Errorf("%w: header %q missing \":\"", ErrMalformed, line)
	}
	name = strings.TrimSpace(string(line[:i]))
	for _, ch := range name {
		if !isHeaderNameRune(ch) {
			return "", "", fmt.Errorf("%w: header name %q has illegal character %q", ErrMalformed, name, ch)
		}
	}
	if name == "" {
		return "", "", fmt.Errorf("%w: empty header name", ErrMalformed)
	}
	value = strings.TrimSpace(string(line[i+1:]))
	if value == "" {
		return "", "", fmt.Errorf("%w: empty value for header %q", ErrMalformed, name)
	}
	return name, value, nil
}

func isHeaderNameRune(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	case ch == '_' || ch == '-':
		return true
	default:
		return false
	}
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
