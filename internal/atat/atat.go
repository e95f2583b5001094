// Package atat implements the "AtAt" key/value directive format used to
// embed declarative metadata inside arbitrary source text:
//
//	@key@ value @@
//
// The opening '@' must be the first byte of a line; the value is terminated
// by two consecutive '@' bytes. See spec.md §4.1.
package atat

import (
	"errors"
	"io"
)

const (
	lf = '\n'
	cr = '\r'
	at = '@'
)

const chunkSize = 4096

// ItemKind distinguishes the two shapes an Item can take.
type ItemKind int

const (
	// Data is a raw pass-through byte segment.
	Data ItemKind = iota
	// KeyValue is a decoded, trimmed key/value directive.
	KeyValue
)

// Item is one event yielded by the parser.
type Item struct {
	Kind  ItemKind
	Bytes []byte // set when Kind == Data
	Key   string // set when Kind == KeyValue
	Value string // set when Kind == KeyValue
}

type state int

const (
	stateWaiting state = iota
	stateLineStart
	stateGatherName
	stateGatherValue
	stateFirstAt
)

// Parser is a one-pass, non-restartable streaming AtAt extractor.
//
// Unlike the original Rust implementation, Go's runtime already retries
// EINTR/EAGAIN internally for blocking file reads, so there is no
// WouldBlock/Interrupted case to special-case here: any error other than
// io.EOF is fatal, per spec.md §4.1.
type Parser struct {
	r       io.Reader
	buf     [chunkSize]byte
	st      state
	name    []byte
	value   []byte
	eof     bool
	lastErr error
}

// New wraps r in an AtAt parser. The initial state is equivalent to the
// beginning of input being a line start.
func New(r io.Reader) *Parser {
	return &Parser{r: r, st: stateLineStart}
}

// Next executes one iteration of parsing, returning the items produced by
// the most recent read. ok is false once the reader is exhausted or a fatal
// read error occurred; call Err to distinguish the two.
func (p *Parser) Next() (items []Item, ok bool) {
	if p.eof {
		return nil, false
	}

	n, err := p.r.Read(p.buf[:])
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			p.lastErr = err
		}
		p.eof = true
		return nil, false
	}

	out := make([]Item, 0, 2)
	out = append(out, Item{Kind: Data, Bytes: append([]byte(nil), p.buf[:n]...)})

	for _, c := range p.buf[:n] {
		switch p.st {
		case stateWaiting:
			if c == lf || c == cr {
				p.st = stateLineStart
			}
		case stateLineStart:
			switch {
			case c == at:
				p.name = p.name[:0]
				p.st = stateGatherName
			case c == lf || c == cr:
				// stay at LineStart
			default:
				p.st = stateWaiting
			}
		case stateGatherName:
			if c == at {
				p.value = p.value[:0]
				p.st = stateGatherValue
			} else {
				p.name = append(p.name, c)
			}
		case stateGatherValue:
			if c == at {
				p.st = stateFirstAt
			} else {
				p.value = append(p.value, c)
			}
		case stateFirstAt:
			if c == at {
				out = append(out, Item{
					Kind:  KeyValue,
					Key:   trim(string(p.name)),
					Value: trim(string(p.value)),
				})
				p.st = stateWaiting
			} else {
				p.value = append(p.value, at, c)
				p.st = stateGatherValue
			}
		}
	}

	if err != nil && !errors.Is(err, io.EOF) {
		p.lastErr = err
		p.eof = true
	}

	return out, true
}

// Err returns the fatal I/O error that ended parsing, if any.
func (p *Parser) Err() error {
	return p.lastErr
}

// ParseKeyValues drains r through a Parser and returns only the decoded
// key/value directives, in order, ignoring raw data segments. It is the
// convenience entry point used by the task metadata loader.
func ParseKeyValues(r io.Reader) ([]Item, error) {
	p := New(r)
	var kvs []Item
	for {
		items, ok := p.Next()
		for _, it := range items {
			if it.Kind == KeyValue {
				kvs = append(kvs, it)
			}
		}
		if !ok {
			break
		}
	}
	return kvs, p.Err()
}

func trim(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
