package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"backoffice/internal/application/listutil"
)

// MsgConnectionFailed is shown when the backend could not be reached.
const MsgConnectionFailed = "connection failed"

// TransportError means no response was received: dial failure, timeout or cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a response with status >= 400.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("marketplace: status %d", e.Status)
	}
	return fmt.Sprintf("marketplace: status %d: %s", e.Status, e.Message)
}

// FieldErrors returns per-field messages reported by the backend, if any.
func (e *APIError) FieldErrors() map[string][]string { return e.Fields }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// parseAPIError extracts the message and field errors from an error body.
// Spring-style bodies ({error, message, errors:[{field, defaultMessage}]}),
// problem+json ({title, detail}) and {errors:{field:[...]}} are understood.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if !gjson.ValidBytes(body) {
		return e
	}
	doc := gjson.ParseBytes(body)
	for _, key := range []string{"message", "detail", "error_description", "title", "error"} {
		if v := doc.Get(key); v.Type == gjson.String && v.String() != "" {
			e.Message = v.String()
			break
		}
	}
	fields := map[string][]string{}
	collect := func(list gjson.Result) {
		list.ForEach(func(key, item gjson.Result) bool {
			switch {
			case item.IsObject():
				name := item.Get("field").String()
				msg := item.Get("defaultMessage").String()
				if msg == "" {
					msg = item.Get("message").String()
				}
				if name != "" && msg != "" {
					fields[name] = append(fields[name], msg)
				}
			case item.IsArray() && key.Exists():
				for _, m := range item.Array() {
					fields[key.String()] = append(fields[key.String()], m.String())
				}
			case key.Exists():
				fields[key.String()] = append(fields[key.String()], item.String())
			}
			return true
		})
	}
	collect(doc.Get("errors"))
	collect(doc.Get("fieldErrors"))
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e
}

// Describe produces the operator-facing alert text for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var transport *TransportError
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return http.StatusText(apiErr.Status)
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.As(err, &transport):
		return MsgConnectionFailed
	case errors.Is(err, listutil.ErrMalformedResult):
		return "unexpected response from server"
	}
	return "unexpected error"
}
