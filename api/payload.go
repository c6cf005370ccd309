package api

import (
	"sort"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request is implemented by every request builder of the SDK.
type Request interface {
	Method() Method
	Fields() Fields
}

// RedirectRequest marks requests whose reply carries a URL the customer must
// be sent to.
type RedirectRequest interface {
	Request
	redirect()
}

// Payload is the validated, immutable form of a Request.
type Payload struct {
	method Method
	fields Fields
}

// Build validates req and freezes its fields into a Payload.
func Build(req Request) (out Payload, err error) {
	if req == nil {
		return out, ConfigError("", "request is nil")
	}
	method := req.Method()
	schema, ok := schemas[method]
	if !ok {
		return out, ConfigError(method, "unknown request method %q", method)
	} else if err = validate.Struct(req); err != nil {
		return out, NewError(ConfigurationError, method, err, "invalid %s request", method)
	}
	fields := req.Fields()
	for _, name := range sortedKeys(fields) {
		if !schema.Declares(name) {
			return out, ConfigError(method, "field %q is not declared for %s requests", name, method)
		}
	}
	return Payload{method: method, fields: fields.Copy()}, nil
}

// NewPayload builds a payload without a typed request, for methods driven by
// callers that hold raw fields.
func NewPayload(method Method, fields Fields) (Payload, error) {
	return Build(rawRequest{method: method, fields: fields})
}

type rawRequest struct {
	method Method
	fields Fields
}

func (r rawRequest) Method() Method { return r.method }
func (r rawRequest) Fields() Fields { return r.fields }

func (p Payload) MethodName() Method {
	return p.method
}

func (p Payload) Fields() Fields {
	return p.fields.Copy()
}

func (p Payload) Get(name string) (any, bool) {
	v, ok := p.fields[name]
	return v, ok
}

// With returns a copy of p with name set to value. The original is left
// untouched.
func (p Payload) With(name string, value any) (out Payload, err error) {
	if !schemas[p.method].Declares(name) {
		return p, ConfigError(p.method, "field %q is not declared for %s requests", name, p.method)
	}
	out = Payload{method: p.method, fields: p.fields.Copy()}
	out.fields[name] = value
	return
}

// EncodedFields returns the field mapping with string values converted into
// UTF-8 from characterEncoding and nil values dropped.
func (p Payload) EncodedFields(characterEncoding string) (Fields, error) {
	return EncodeValues(p.fields, characterEncoding)
}

// Encode returns a payload holding the encoded fields.
func (p Payload) Encode(characterEncoding string) (out Payload, err error) {
	out.method = p.method
	if out.fields, err = p.EncodedFields(characterEncoding); err != nil {
		err = NewError(ConfigurationError, p.method, err, "failed to encode %s request", p.method)
	}
	return
}

// Wire returns the fields renamed to the gateway casing declared for the
// payload's method.
func (p Payload) Wire() Fields {
	return schemas[p.method].Rename(p.fields)
}

func sortedKeys(f Fields) (out []string) {
	out = make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return
}
