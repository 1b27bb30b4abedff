package agui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxSSELineSize bounds a single SSE line.
const maxSSELineSize = 1024 * 1024

// frame is one dispatched server-sent event.
type frame struct {
	event string
	id    string
	data  string
}

// frameReader reads server-sent event frames. Frames without data lines are
// skipped, as are comments and retry fields.
type frameReader struct {
	scanner *bufio.Scanner
}

func newFrameReader(r io.Reader) *frameReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &frameReader{scanner: scanner}
}

// next returns the next frame, or io.EOF once the stream is exhausted. A final
// frame missing its blank line is still returned.
func (fr *frameReader) next() (frame, error) {
	var f frame
	var data []string
	for fr.scanner.Scan() {
		line := fr.scanner.Text()
		if line == "" {
			if len(data) > 0 {
				f.data = strings.Join(data, "\n")
				return f, nil
			}
			f = frame{}
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			f.event = value
		case "id":
			f.id = value
		}
	}
	if err := fr.scanner.Err(); err != nil {
		return frame{}, err
	}
	if len(data) > 0 {
		f.data = strings.Join(data, "\n")
		return f, nil
	}
	return frame{}, io.EOF
}

// Decoder reads AG-UI events from an SSE response body.
type Decoder struct {
	frames *frameReader
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{frames: newFrameReader(r)}
}

// Decode returns the next event, or io.EOF when the stream ends.
func (d *Decoder) Decode() (Event, error) {
	f, err := d.frames.next()
	if err != nil {
		return Event{}, err
	}
	var evt Event
	if err := json.Unmarshal([]byte(f.data), &evt); err != nil {
		return Event{}, fmt.Errorf("failed to parse event: %w", err)
	}
	return evt, nil
}

// eventWriter writes AG-UI events as SSE data frames.
type eventWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func (ew *eventWriter) write(evt Event) error {
	if evt.Timestamp == 0 {
		evt.Timestamp = now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(ew.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if ew.flusher != nil {
		ew.flusher.Flush()
	}
	return nil
}
