package provider

import (
	"bufio"
	"bytes"
	"io"
)

// maxEventSize bounds a single SSE line.
const maxEventSize = 1024 * 1024

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &SSEReader{scanner: s}
}

// Next returns the data payload of the next event. Multi-line data fields are
// joined with "\n". Returns io.EOF when the stream ends without a pending event.
func (s *SSEReader) Next() ([]byte, error) {
	var data [][]byte

	for s.scanner.Scan() {
		line := bytes.TrimRight(s.scanner.Bytes(), "\r")

		if len(line) == 0 {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			continue
		}

		if v, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			// Copy: the scanner reuses its buffer on the next Scan.
			data = append(data, bytes.Clone(bytes.TrimPrefix(v, []byte(" "))))
		}
		// Ignore event:, id:, retry: and ":" comments.
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		return bytes.Join(data, []byte("\n")), nil
	}
	return nil, io.EOF
}
