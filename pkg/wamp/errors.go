package wamp

import (
    "errors"
    "fmt"
)

// ErrClientClosed is returned by operations attempted after the session
// reached the closed state, and is the rejection cause for requests drained
// at termination.
var ErrClientClosed = errors.New("client closed")

// InvalidMessageError reports malformed or unrecognized wire data. It is
// fatal to the session that received it.
type InvalidMessageError struct {
    Reason string
}

func (e *InvalidMessageError) Error() string { return "invalid message: " + e.Reason }

func invalidf(format string, args ...any) error {
    return &InvalidMessageError{Reason: fmt.Sprintf(format, args...)}
}

// UnexpectedMessageError reports a message that is not a legal response in
// the state it arrived in. Treated with the same severity as
// InvalidMessageError.
type UnexpectedMessageError struct {
    Got  Type
    Want Type
}

func (e *UnexpectedMessageError) Error() string {
    return fmt.Sprintf("received %s but expected %s", e.Got, e.Want)
}

// AbortError carries the reason the peer rejected the handshake or killed
// the session.
type AbortError struct {
    Reason  URI
    Details Dict
}

func (e *AbortError) Error() string { return "session aborted: " + string(e.Reason) }

// AuthError reports that no usable authentication method was available or
// that computing the challenge response failed. Fatal to the join attempt
// only.
type AuthError struct {
    Method string
    Err    error
}

func (e *AuthError) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("auth method %q: %v", e.Method, e.Err)
    }
    return fmt.Sprintf("auth method %q not available", e.Method)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError reports an underlying channel failure. Fatal: every
// outstanding operation is drained with it.
type TransportError struct {
    Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ErrorResponse is the peer's protocol Error for one specific request,
// local to that request only.
type ErrorResponse struct {
    ErrType Type
    Request ID
    URI     URI
    Details Dict
    Args    List
    Kwargs  Dict
}

func (e *ErrorResponse) Error() string {
    return fmt.Sprintf("%s request %d failed: %s", e.ErrType, e.Request, e.URI)
}

// ResponseError converts a protocol Error message into the matching
// ErrorResponse value.
func ResponseError(m *Error) *ErrorResponse {
    return &ErrorResponse{
        ErrType: m.ErrType,
        Request: m.Request,
        URI:     m.Error,
        Details: m.Details,
        Args:    m.Args,
        Kwargs:  m.Kwargs,
    }
}
