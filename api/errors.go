package api

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	// ConfigurationError is a client side misconfiguration: unknown api type,
	// missing credentials, undeclared payload fields.
	ConfigurationError ErrorKind = "configuration"
	// TransportError covers network failures, timeouts, non-success HTTP
	// statuses and SOAP faults.
	TransportError ErrorKind = "transport"
	// ProtocolError is a reply that arrived but could not be understood.
	ProtocolError ErrorKind = "protocol"
)

// Error is returned by every dispatch path of the SDK.
type Error struct {
	Kind   ErrorKind
	Method Method
	Msg    string
	Err    error
	// Status is the HTTP status of the reply, when one arrived.
	Status int
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}

func NewError(kind ErrorKind, method Method, err error, message string, args ...interface{}) *Error {
	return &Error{Kind: kind, Method: method, Err: err, Msg: fmt.Sprintf(message, args...)}
}

func ConfigError(method Method, message string, args ...interface{}) *Error {
	return NewError(ConfigurationError, method, nil, message, args...)
}

func CommunicationError(method Method, err error) *Error {
	return NewError(TransportError, method, err, "Communication error")
}

func ParseError(method Method, err error, message string, args ...interface{}) *Error {
	return NewError(ProtocolError, method, err, message, args...)
}

// IsKind reports whether err carries an *Error of the given kind anywhere in
// its chain.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// RemoteError describes a well formed gateway reply whose result code is
// ERROR. The dispatch path never returns it; see Envelope.Err.
type RemoteError struct {
	Code    string
	Message string
	Result  ResultCode
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gateway returned %s: %s", e.Result, e.Message)
	}
	return fmt.Sprintf("gateway returned %s [%s]: %s", e.Result, e.Code, e.Message)
}
