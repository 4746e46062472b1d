// Package actions parses the model's action strings into structured
// actions. The phone-use model answers with a single call expression such as
//
//	do(action="Tap", element=[[100,200],[300,400]])
//	do(action="Type", text="dumplings")
//	finish(message="Order placed")
//
// Anything that does not parse as a recognized call is reported as
// ErrUnrecognized; callers treat that as a task-completion signal carrying
// the raw text, not as a failure.
package actions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnrecognized reports that the text is not a recognized action call.
var ErrUnrecognized = errors.New("unrecognized action")

// MetadataKey tags the call name in an action's wire payload.
const MetadataKey = "_metadata"

// Call names the model is allowed to emit.
const (
	CallDo     = "do"
	CallFinish = "finish"
)

// Action is one parsed call expression.
type Action struct {
	Name string         // "do" or "finish"
	Args map[string]any // keyword arguments; source order is not preserved
}

// Finish returns true if the action signals task completion.
func (a *Action) Finish() bool {
	return a.Name == CallFinish
}

// Payload renders the wire object sent back to the client:
// the call name under MetadataKey plus every keyword argument.
func (a *Action) Payload() map[string]any {
	out := make(map[string]any, len(a.Args)+1)
	out[MetadataKey] = a.Name
	for k, v := range a.Args {
		out[k] = v
	}
	return out
}

// FinishPayload builds the synthetic finish object used when the model's
// text is not a recognized action.
func FinishPayload(raw string) map[string]any {
	return map[string]any{
		MetadataKey: CallFinish,
		"message":   raw,
	}
}

// Parse parses a single action call expression. The whole input must be
// consumed (modulo surrounding whitespace); partial matches, unknown call
// names, and malformed argument lists all yield ErrUnrecognized.
func Parse(text string) (*Action, error) {
	p := &parser{src: strings.TrimSpace(text)}

	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if name != CallDo && name != CallFinish {
		return nil, fmt.Errorf("%w: unknown call %q", ErrUnrecognized, name)
	}

	args, err := p.argList()
	if err != nil {
		return nil, err
	}

	p.space()
	if !p.eof() {
		return nil, fmt.Errorf("%w: trailing text after call", ErrUnrecognized)
	}

	return &Action{Name: name, Args: args}, nil
}

// --- recursive-descent parser -------------------------------------------

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) space() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *parser) expect(c byte) error {
	p.space()
	if p.peek() != c {
		return fmt.Errorf("%w: expected %q at offset %d", ErrUnrecognized, string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) ident() (string, error) {
	p.space()
	start := p.pos
	for !p.eof() {
		r := rune(p.src[p.pos])
		if unicode.IsLetter(r) || r == '_' || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", fmt.Errorf("%w: expected identifier at offset %d", ErrUnrecognized, p.pos)
	}
	return p.src[start:p.pos], nil
}

// argList parses "(key=value, ...)", tolerating a trailing comma.
func (p *parser) argList() (map[string]any, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	args := make(map[string]any)
	p.space()
	for p.peek() != ')' {
		key, err := p.ident()
		if err != nil {
			return nil, err
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		args[key] = val

		p.space()
		if p.peek() == ',' {
			p.pos++
			p.space()
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) value() (any, error) {
	p.space()
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		return p.stringLit()
	case c == '[':
		return p.list()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		word, err := p.ident()
		if err != nil {
			return nil, err
		}
		switch word {
		case "True", "true":
			return true, nil
		case "False", "false":
			return false, nil
		case "None", "null":
			return nil, nil
		}
		return nil, fmt.Errorf("%w: bad value %q", ErrUnrecognized, word)
	}
}

func (p *parser) stringLit() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			switch p.src[p.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(p.src[p.pos])
			}
			p.pos++
			continue
		}
		if c == quote {
			p.pos++
			return sb.String(), nil
		}
		sb.WriteByte(c)
		p.pos++
	}
	return "", fmt.Errorf("%w: unterminated string", ErrUnrecognized)
}

func (p *parser) list() ([]any, error) {
	p.pos++ // consume '['
	out := []any{}
	p.space()
	for p.peek() != ']' {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.space()
		if p.peek() == ',' {
			p.pos++
			p.space()
			continue
		}
		break
	}
	if err := p.expect(']'); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) number() (any, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	dot := false
	for !p.eof() {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && !dot {
			dot = true
			p.pos++
			continue
		}
		break
	}
	lit := p.src[start:p.pos]
	if dot {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrUnrecognized, lit)
		}
		return f, nil
	}
	n, err := strconv.Atoi(lit)
	if err != nil {
		return nil, fmt.Errorf("%w: bad number %q", ErrUnrecognized, lit)
	}
	return n, nil
}
