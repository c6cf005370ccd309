package api

import (
	"bytes"
	"fmt"

	json "github.com/json-iterator/go"
)

// Envelope is the decoded reply of the gateway. Keys carry the gateway
// casing (first letter uppercased).
type Envelope Fields

const (
	FieldResultCode            = "ResultCode"
	FieldResultMessage         = "ResultMessage"
	FieldTransactionId         = "TransactionId"
	FieldProviderTransactionId = "ProviderTransactionId"
	FieldOrderId               = "OrderId"
	FieldRedirectUrl           = "RedirectUrl"
	FieldErrorCode             = "ErrorCode"
	FieldErrorMessage          = "ErrorMessage"
)

const maxQuotedInput = 256

// DecodeJSON decodes a REST reply body.
func DecodeJSON(method Method, body []byte) (out Envelope, err error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err = dec.Decode(&raw); err != nil {
		return nil, ParseError(method, err, "invalid %s response %q", method, Excerpt(body))
	} else if raw == nil {
		return nil, ParseError(method, nil, "empty %s response %q", method, Excerpt(body))
	}
	return FromFields(raw), nil
}

// FromFields normalizes an already decoded reply.
func FromFields(raw map[string]any) Envelope {
	return Envelope(UcFirstKeys(raw))
}

// Excerpt shortens body for use in error messages.
func Excerpt(body []byte) string {
	if len(body) > maxQuotedInput {
		return string(body[:maxQuotedInput]) + "..."
	}
	return string(body)
}

// String returns the value under key rendered as a string, or "" when absent.
func (e Envelope) String(key string) string {
	switch v := e[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (e Envelope) Has(key string) bool {
	_, ok := e[key]
	return ok
}

func (e Envelope) ResultCode() ResultCode {
	return ResultCode(e.String(FieldResultCode))
}

func (e Envelope) ResultMessage() string {
	return e.String(FieldResultMessage)
}

func (e Envelope) TransactionId() string {
	return e.String(FieldTransactionId)
}

func (e Envelope) ProviderTransactionId() string {
	return e.String(FieldProviderTransactionId)
}

func (e Envelope) OrderId() string {
	return e.String(FieldOrderId)
}

func (e Envelope) RedirectUrl() string {
	return e.String(FieldRedirectUrl)
}

func (e Envelope) ErrorCode() string {
	return e.String(FieldErrorCode)
}

func (e Envelope) ErrorMessage() string {
	if msg := e.String(FieldErrorMessage); msg != "" {
		return msg
	}
	return e.ResultMessage()
}

func (e Envelope) Successful() bool {
	return e.ResultCode() == ResultSuccess
}

// Err returns a *RemoteError when the gateway reported ERROR, nil otherwise.
func (e Envelope) Err() error {
	if e.ResultCode() != ResultError {
		return nil
	}
	return &RemoteError{Result: ResultError, Code: e.ErrorCode(), Message: e.ErrorMessage()}
}
