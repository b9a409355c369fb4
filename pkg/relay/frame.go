package relay

import "bytes"

var (
	dataPrefix = []byte("data:")
	dataField  = []byte("data: ")
)

// fieldPrefixes are SSE fields other than data. They are forwarded unchanged
// and stay attached to the data line that follows them.
var fieldPrefixes = [][]byte{
	[]byte("event:"),
	[]byte("id:"),
	[]byte("retry:"),
	[]byte(":"),
}

// Frame converts one upstream line, without its line terminator, into the
// caller's event-stream framing. Lines that already carry the data prefix are
// returned unchanged; bare lines are prefixed exactly once, so Frame is
// idempotent.
func Frame(line []byte) []byte {
	framed, _ := frame(line)
	return framed
}

// frame also reports whether the line is a data line, which closes an event.
func frame(line []byte) ([]byte, bool) {
	if bytes.HasPrefix(line, dataPrefix) {
		return line, true
	}
	for _, p := range fieldPrefixes {
		if bytes.HasPrefix(line, p) {
			return line, false
		}
	}
	out := make([]byte, 0, len(dataField)+len(line))
	out = append(out, dataField...)
	out = append(out, line...)
	return out, true
}

// trimEOL strips a trailing "\n" or "\r\n".
func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
