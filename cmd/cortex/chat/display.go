package chatcmder

import (
	"io"
	"strings"

	"github.com/papercomputeco/cortex/pkg/chat"
)

// eraseCursor moves back over the cursor marker and clears to end of line.
const eraseCursor = "\b\x1b[K"

// terminalDisplay prints each frame as the text added since the previous
// one. On a terminal the cursor marker trails the text until the final frame;
// elsewhere only the text is written.
type terminalDisplay struct {
	w   io.Writer
	tty bool

	shown  int
	cursor bool
}

func (d *terminalDisplay) Render(f chat.Frame) error {
	var b strings.Builder
	if d.cursor {
		b.WriteString(eraseCursor)
		d.cursor = false
	}

	b.WriteString(f.Text[d.shown:])
	d.shown = len(f.Text)

	switch {
	case f.Final:
		b.WriteString("\n")
	case d.tty:
		b.WriteString(chat.Cursor)
		d.cursor = true
	}

	_, err := io.WriteString(d.w, b.String())
	return err
}

// abort ends a failed frame sequence so the error starts on a fresh line.
func (d *terminalDisplay) abort() {
	var b strings.Builder
	if d.cursor {
		b.WriteString(eraseCursor)
		d.cursor = false
	}
	if d.shown > 0 {
		b.WriteString("\n")
	}
	_, _ = io.WriteString(d.w, b.String())
}
