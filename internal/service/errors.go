package service

import (
	"fmt"
	"net/http"
)

// Kind enumerates the failure classes an invocation can end in.
type Kind int

const (
	// KindClientRequest is a route or method outside the allow-list.
	KindClientRequest Kind = iota + 1
	// KindUpstreamTransport is a connection, TLS, DNS or mid-body failure.
	KindUpstreamTransport
	// KindUpstreamTimeout is an upstream call that exceeded its deadline.
	KindUpstreamTimeout
	// KindUpstreamStatus is a reachable upstream answering with a non-200 status.
	KindUpstreamStatus
	// KindResponseDecode is a 200 body that is not usable JSON.
	KindResponseDecode
	// KindResponseShape is a 200 JSON body missing the hourly series.
	KindResponseShape
)

// String returns the outcome label used in metrics and logs.
func (k Kind) String() string {
	switch k {
	case KindClientRequest:
		return "rejected"
	case KindUpstreamTransport:
		return "transport_error"
	case KindUpstreamTimeout:
		return "timeout"
	case KindUpstreamStatus:
		return "upstream_status"
	case KindResponseDecode:
		return "decode_error"
	case KindResponseShape:
		return "shape_error"
	default:
		return "unknown"
	}
}

// Error is a classified invocation failure. It always carries enough to render
// the outbound response: the status code and the kind-specific detail.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error

	// Path and Method are set for KindClientRequest.
	Path, Method string
	// UpstreamBody is set for KindUpstreamStatus (raw text) and KindResponseShape (compacted JSON).
	UpstreamBody []byte
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (HTTP %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func clientRequestError(path, method string, err error) *Error {
	return &Error{Kind: KindClientRequest, StatusCode: http.StatusBadRequest, Err: err, Path: path, Method: method}
}

func transportError(err error) *Error {
	return &Error{Kind: KindUpstreamTransport, StatusCode: http.StatusInternalServerError, Err: err}
}

func timeoutError(err error) *Error {
	return &Error{Kind: KindUpstreamTimeout, StatusCode: http.StatusGatewayTimeout, Err: err}
}

func statusError(code int, body []byte) *Error {
	return &Error{
		Kind:         KindUpstreamStatus,
		StatusCode:   code,
		Err:          fmt.Errorf("upstream returned HTTP %d", code),
		UpstreamBody: body,
	}
}

func decodeError(err error) *Error {
	return &Error{Kind: KindResponseDecode, StatusCode: http.StatusInternalServerError, Err: err}
}

func shapeError(err error, doc []byte) *Error {
	return &Error{Kind: KindResponseShape, StatusCode: http.StatusInternalServerError, Err: err, UpstreamBody: doc}
}
