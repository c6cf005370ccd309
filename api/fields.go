package api

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Fields is a request or response field mapping.
type Fields map[string]any

func (f Fields) Copy() (out Fields) {
	out = make(Fields, len(f))
	for k, v := range f {
		if nested, ok := v.(Fields); ok {
			v = nested.Copy()
		}
		out[k] = v
	}
	return
}

// UcFirst uppercases the first letter of name, mirroring the gateway casing.
func UcFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// Schema maps the declared field names of a request type to the names the
// gateway expects on the wire.
type Schema map[string]string

// NewSchema declares fields whose wire name is the upper-first form of the
// local name.
func NewSchema(names ...string) Schema {
	out := make(Schema, len(names))
	for _, name := range names {
		out[name] = UcFirst(name)
	}
	return out
}

func (s Schema) Declares(name string) bool {
	_, ok := s[name]
	return ok
}

// Rename applies the schema to f. Fields must already be validated against
// the schema.
func (s Schema) Rename(f Fields) (out Fields) {
	out = make(Fields, len(f))
	for k, v := range f {
		if wire, ok := s[k]; ok {
			k = wire
		}
		out[k] = v
	}
	return
}

// UcFirstKeys renames every key (recursively, through nested maps and
// lists) to its upper-first form. Used for replies, whose fields are not
// declared up front.
func UcFirstKeys(m map[string]any) (out Fields) {
	out = make(Fields, len(m))
	for k, v := range m {
		out[UcFirst(k)] = ucFirstValue(v)
	}
	return
}

func ucFirstValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return UcFirstKeys(val)
	case Fields:
		return UcFirstKeys(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = ucFirstValue(val[i])
		}
		return out
	}
	return v
}

func charset(name string) (enc encoding.Encoding, err error) {
	if name == "" {
		name = CharacterEncodingDefault
	}
	if enc, err = htmlindex.Get(name); err != nil {
		return nil, errors.Wrapf(err, "unsupported character encoding %q", name)
	}
	return
}

// EncodeValues converts every string value of f into UTF-8 from the named
// character set and drops nil values. Strings that are already valid UTF-8
// are kept as they are, which makes the transform idempotent.
func EncodeValues(f Fields, characterEncoding string) (out Fields, err error) {
	var enc encoding.Encoding
	if enc, err = charset(characterEncoding); err != nil {
		return
	}
	return encodeValues(f, enc)
}

func encodeValues(f Fields, enc encoding.Encoding) (out Fields, err error) {
	out = make(Fields, len(f))
	for k, v := range f {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if out[k], err = encodeString(val, enc); err != nil {
				return nil, errors.Wrapf(err, "failed to encode field %s", k)
			}
		case Fields:
			if out[k], err = encodeValues(val, enc); err != nil {
				return
			}
		default:
			out[k] = v
		}
	}
	return
}

func encodeString(s string, enc encoding.Encoding) (string, error) {
	if utf8.ValidString(s) {
		return s, nil
	}
	out, err := enc.NewDecoder().String(s)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(out, string(utf8.RuneError)), nil
}
