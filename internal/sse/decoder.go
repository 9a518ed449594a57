package sse

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
	deltaPath    = "choices.0.delta.content"

	readSize = 4096
)

// Event is one decoded stream line.
type Event struct {
	// Content is the text delta carried by the event. Empty for Done.
	Content string

	// Done marks the end-of-stream sentinel.
	Done bool
}

// Decoder turns raw stream bytes into Events. The zero value is ready to
// use. A Decoder is not safe for concurrent use.
type Decoder struct {
	// OnMalformed, when set, is called with the payload of every data line
	// that is not valid JSON. Malformed lines are skipped either way.
	OnMalformed func(payload string)

	buf []byte
}

// Feed appends chunk to the residual buffer and returns the events of every
// line completed by it. A trailing partial line is kept for the next call.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := string(d.buf[:i])
		d.buf = d.buf[i+1:]
		if ev, ok := d.decodeLine(line); ok {
			events = append(events, ev)
		}
	}

	// Release the consumed prefix once the buffer is drained.
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return events
}

// Flush decodes a final line that was not newline terminated.
func (d *Decoder) Flush() []Event {
	if len(d.buf) == 0 {
		return nil
	}
	line := string(d.buf)
	d.buf = nil
	if ev, ok := d.decodeLine(line); ok {
		return []Event{ev}
	}
	return nil
}

// Pending returns the number of buffered bytes not yet forming a full line.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

func (d *Decoder) decodeLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return Event{}, false
	}
	if payload == doneSentinel {
		return Event{Done: true}, true
	}
	if !gjson.Valid(payload) {
		if d.OnMalformed != nil {
			d.OnMalformed(payload)
		}
		return Event{}, false
	}

	delta := gjson.Get(payload, deltaPath)
	if delta.Type != gjson.String || delta.Str == "" {
		return Event{}, false
	}
	return Event{Content: delta.Str}, true
}

// Deltas lazily reads r and yields each non-empty content delta. The
// end-of-stream sentinel is skipped and reading continues until r is
// exhausted. A read error other than io.EOF is yielded once and ends the
// sequence.
func Deltas(r io.Reader, onMalformed func(payload string)) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dec := &Decoder{OnMalformed: onMalformed}
		buf := make([]byte, readSize)

		emit := func(events []Event) bool {
			for _, ev := range events {
				if ev.Done {
					continue
				}
				if !yield(ev.Content, nil) {
					return false
				}
			}
			return true
		}

		for {
			n, err := r.Read(buf)
			if n > 0 {
				if !emit(dec.Feed(buf[:n])) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				emit(dec.Flush())
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}

// Collect concatenates every delta of r.
func Collect(r io.Reader) (string, error) {
	var b strings.Builder
	for delta, err := range Deltas(r, nil) {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(delta)
	}
	return b.String(), nil
}
