package httpcoro

import (
	"fmt"
	"strconv"
)

// ByteWriter is the subset of netio.Writer the codec needs to emit a
// message: buffered small writes plus an explicit Flush, matching
// LineReader's role on the read side.
type ByteWriter interface {
	Write(p []byte) error
	Flush() error
}

// SerializeRequest writes req to w as an HTTP/1.1 request line, headers
// (Content-Length recomputed from the body, any existing one dropped),
// and body.
func SerializeRequest(w ByteWriter, req *Request) error {
	line := fmt.Sprintf("%s %s HTTP/1.1\r\n", req.Method, req.Target)
	if err := w.Write([]byte(line)); err != nil {
		return err
	}
	if err := writeHeaderBody(w, req.Header, req.Body); err != nil {
		return err
	}
	return w.Flush()
}

// SerializeResponse writes resp to w as an HTTP/1.1 status line,
// headers, and body.
func SerializeResponse(w ByteWriter, resp *Response) error {
	line := fmt.Sprintf("HTTP/1.1 %d %s\r\n", resp.Status, ReasonPhrase(resp.Status))
	if err := w.Write([]byte(line)); err != nil {
		return err
	}
	if err := writeHeaderBody(w, resp.Header, resp.Body); err != nil {
		return err
	}
	return w.Flush()
}

func writeHeaderBody(w ByteWriter, header *Header, body []byte) error {
	if header != nil {
		for _, name := range header.Keys() {
			if eqFold(name, "Content-Length") {
				continue
			}
			v, _ := header.Get(name)
			if err := w.Write([]byte(name + ": " + v + "\r\n")); err != nil {
				return err
			}
		}
	}
	if len(body) > 0 {
		if err := w.Write([]byte("Content-Length: " + strconv.Itoa(len(body)) + "\r\n")); err != nil {
			return err
		}
	}
	if err := w.Write(crlf); err != nil {
		return err
	}
	if len(body) > 0 {
		return w.Write(body)
	}
	return nil
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
