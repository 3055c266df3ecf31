package restclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind classifies why a call did not produce data.
type Kind string

const (
	KindTransport    Kind = "transport"
	KindTimeout      Kind = "timeout"
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindHTTP         Kind = "http"
	KindDecode       Kind = "decode"
	KindInternal     Kind = "internal"
)

// Error is the failure half of a Result. It is a value, not something that
// unwinds the caller.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) IsUnauthorized() bool { return e != nil && e.Kind == KindUnauthorized }
func (e *Error) IsRateLimited() bool  { return e != nil && e.Kind == KindRateLimited }

// Result is what every client verb returns: either Data or Error is set.
type Result struct {
	Status int             `json:"status,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

func (r *Result) OK() bool {
	return r != nil && r.Error == nil
}

// Decode unmarshals Data into v. Calling it on a failed result returns the
// result's Error.
func (r *Result) Decode(v interface{}) error {
	if r == nil {
		return &Error{Kind: KindInternal, Message: "nil result"}
	}
	if r.Error != nil {
		return r.Error
	}
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return &Error{Status: r.Status, Kind: KindDecode, Message: err.Error()}
	}
	return nil
}

func failure(kind Kind, status int, message string) *Result {
	return &Result{
		Status: status,
		Error:  &Error{Status: status, Kind: kind, Message: message},
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindHTTP
	}
}

// remoteMessage digs a message out of the backend's error envelope. The
// backend is not consistent, so several shapes are tried.
func remoteMessage(body []byte, status int) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, raw := range []json.RawMessage{envelope.Message, envelope.Error} {
			if msg := rawToMessage(raw); msg != "" {
				return msg
			}
		}
	}
	return http.StatusText(status)
}

func rawToMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.Message
	}
	return ""
}
