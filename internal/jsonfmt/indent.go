// Package jsonfmt re-serialises arbitrary JSON documents for storage on disk.
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalid is returned when the input is not valid UTF-8 encoded JSON.
var ErrInvalid = errors.New("invalid JSON")

const indentUnit = "  "

// Indent validates data and returns the same document with two-space
// indentation. Object keys keep their input order, numbers keep their input
// text, and string escapes are decoded so non-ASCII characters are written
// literally. The result has no trailing newline.
func Indent(data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: body is not valid UTF-8", ErrInvalid)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: syntax error", ErrInvalid)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := writeValue(dec, &buf, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return buf.Bytes(), nil
}

func writeValue(dec *json.Decoder, buf *bytes.Buffer, depth int) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return writeObject(dec, buf, depth)
		}
		return writeArray(dec, buf, depth)
	case string:
		writeString(buf, v)
	case json.Number:
		buf.WriteString(v.String())
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %v", tok)
	}
	return nil
}

func writeObject(dec *json.Decoder, buf *bytes.Buffer, depth int) error {
	buf.WriteByte('{')
	empty := true
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("object key is %T, not string", tok)
		}

		if !empty {
			buf.WriteByte(',')
		}
		empty = false
		newline(buf, depth+1)
		writeString(buf, key)
		buf.WriteString(": ")
		if err := writeValue(dec, buf, depth+1); err != nil {
			return err
		}
	}
	return closeContainer(dec, buf, depth, empty, '}')
}

func writeArray(dec *json.Decoder, buf *bytes.Buffer, depth int) error {
	buf.WriteByte('[')
	empty := true
	for dec.More() {
		if !empty {
			buf.WriteByte(',')
		}
		empty = false
		newline(buf, depth+1)
		if err := writeValue(dec, buf, depth+1); err != nil {
			return err
		}
	}
	return closeContainer(dec, buf, depth, empty, ']')
}

func closeContainer(dec *json.Decoder, buf *bytes.Buffer, depth int, empty bool, delim byte) error {
	// Consume the closing delimiter.
	if _, err := dec.Token(); err != nil {
		return err
	}
	if !empty {
		newline(buf, depth)
	}
	buf.WriteByte(delim)
	return nil
}

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indentUnit, depth))
}

// writeString quotes s, escaping only the quote, the backslash and control
// characters. Everything else, U+2028 and U+2029 included, is written as is.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}
