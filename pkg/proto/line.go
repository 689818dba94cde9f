// Package proto implements the newline-terminated ASCII protocol spoken by
// the arm controller: line reassembly from arbitrary byte chunks, and the
// G06 motion command codec.
package proto

import (
	"bytes"
	"strings"
)

// Reader reassembles complete lines from arbitrarily chunked input. A
// partial line left after the last terminator is retained across Feed
// calls, so any chunking of the same byte stream yields the same lines.
//
// Line length is not capped; a peer that never sends a terminator grows
// the buffer without bound.
type Reader struct {
	buf bytes.Buffer
}

// Feed appends chunk to the buffer and returns every newline-terminated
// line now available, terminators stripped. A trailing carriage return is
// stripped as well, so CRLF peers parse identically.
func (r *Reader) Feed(chunk []byte) []string {
	r.buf.Write(chunk)

	var lines []string
	for {
		i := bytes.IndexByte(r.buf.Bytes(), '\n')
		if i < 0 {
			return lines
		}
		line := strings.TrimSuffix(string(r.buf.Bytes()[:i]), "\r")
		r.buf.Next(i + 1)
		lines = append(lines, line)
	}
}

// Pending reports the number of buffered bytes awaiting a terminator.
func (r *Reader) Pending() int {
	return r.buf.Len()
}
