// Package errors attaches gRPC status codes, HTTP status codes, public
// messages and a call stack to errors.
//
// Errors returned from URL resolution carry a gRPC code so that HTTP handlers
// and gRPC services can translate them consistently:
//
//	u, err := currenturl.Resolve(currenturl.HTTPRequest(r))
//	if err != nil {
//	    http.Error(w, errors.PublicMessage(err), errors.HTTPStatusCode(err))
//	    return
//	}
//
// *Error implements the error interface and unwraps to the error it holds, so
// errors.Is and errors.As from the standard library see through it.
package errors

import (
	"fmt"
	"reflect"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is an error with a call stack and status codes attached.
type Error struct {
	Err   error
	stack []uintptr

	// gRPC status code to associate with an error response.
	code codes.Code

	// Overrides the HTTP status mapped from code when non-zero.
	httpStatusCode int

	// Message safe to return to a client, defaults to Err's message.
	publicMessage string
}

// New makes an Error from the given value with codes.Unknown. Non-error
// values are formatted with %v. The stack starts at the caller of New.
func New(e interface{}) *Error {
	return build(e, codes.Unknown, 1)
}

// NewC makes an Error with a status code.
func NewC(e interface{}, code codes.Code) *Error {
	return build(e, code, 1)
}

// Wrap makes an Error from the given value. An *Error is returned unchanged,
// nil stays nil. skip is the number of frames above the caller of Wrap to
// start the stack at.
func Wrap(e interface{}, skip int) *Error {
	switch e := e.(type) {
	case nil:
		return nil
	case *Error:
		return e
	}
	return build(e, codes.Unknown, 1+skip)
}

func build(e interface{}, code codes.Code, skip int) *Error {
	err, ok := e.(error)
	if !ok {
		err = fmt.Errorf("%v", e)
	}
	return &Error{
		Err:   err,
		stack: callers(2 + skip),
		code:  code,
	}
}

// WithPublicMessage wraps err and sets the message returned to clients.
func WithPublicMessage(err error, publicMessage string) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, 1).WithPublicMessage(publicMessage)
}

// WithCode wraps err and sets its gRPC status code.
func WithCode(err error, code codes.Code) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, 1).WithCode(code)
}

// WithHTTPStatusCode wraps err and sets an explicit HTTP status, overriding
// the one mapped from the gRPC code.
func WithHTTPStatusCode(err error, code int) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, 1).WithHTTPStatusCode(code)
}

func (err *Error) Error() string {
	return err.Err.Error()
}

// Unwrap returns the wrapped error.
func (err *Error) Unwrap() error {
	return err.Err
}

// TypeName returns the type of the wrapped error, e.g. *url.Error.
func (err *Error) TypeName() string {
	return reflect.TypeOf(err.Err).String()
}

// Code returns the gRPC status code associated with the error.
func (err *Error) Code() codes.Code {
	return err.code
}

// WithCode sets the gRPC status code associated with the error.
func (err *Error) WithCode(code codes.Code) *Error {
	err.code = code
	return err
}

// HTTPStatusCode returns the explicit HTTP status, or the one mapped from the
// gRPC code.
func (err *Error) HTTPStatusCode() int {
	if err.httpStatusCode != 0 {
		return err.httpStatusCode
	}
	return httpStatusFromCode(err.code)
}

// WithHTTPStatusCode sets the HTTP status code that should be returned to the
// client.
func (err *Error) WithHTTPStatusCode(code int) *Error {
	err.httpStatusCode = code
	return err
}

// PublicMessage returns the error string that should be returned to the client.
func (err *Error) PublicMessage() string {
	if err.publicMessage != "" {
		return err.publicMessage
	}
	return err.Error()
}

// WithPublicMessage sets the error string that should be returned to the client.
func (err *Error) WithPublicMessage(publicMessage string) *Error {
	err.publicMessage = publicMessage
	return err
}

// GRPCStatus lets status.FromError and grpc-gateway read the code and public
// message.
func (err *Error) GRPCStatus() *status.Status {
	return status.New(err.Code(), err.PublicMessage())
}
