package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorInfo is the serializable error value slices keep in state.
type ErrorInfo struct {
	Message string            `json:"message"`
	Status  int               `json:"status,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Normalize converts any error into the ErrorInfo stored by slices.
func Normalize(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	return &ErrorInfo{
		Message: Message(err),
		Status:  StatusCode(err),
		Fields:  ValidationFields(err),
	}
}

// Message maps an error into text suitable for a snackbar. A message supplied
// by the server wins; otherwise a status-keyed fallback is used.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if msg := ServerMessage(httpErr.Body); msg != "" {
			return msg
		}
		return statusMessage(httpErr.Status)
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "The request timed out. Please try again."
		}
		return "Network error. Please check your connection."
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Error()
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return "Validation failed. Please check your input."
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "An unexpected error occurred."
}

func statusMessage(status int) string {
	switch status {
	case 400:
		return "Invalid request. Please check your input."
	case 401:
		return "You are not authorized. Please login again."
	case 403:
		return "You do not have permission to perform this action."
	case 404:
		return "The requested resource was not found."
	case 409:
		return "This resource already exists."
	case 422:
		return "Validation failed. Please check your input."
	case 429:
		return "Too many requests. Please try again later."
	case 500:
		return "Server error. Please try again later."
	case 503:
		return "Service unavailable. Please try again later."
	default:
		return fmt.Sprintf("An error occurred (%d). Please try again.", status)
	}
}

// ServerMessage extracts the human readable message from a response body:
// "message" first, then the problem+json "detail" and "title" members.
func ServerMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"message", "detail", "title"} {
		if res := gjson.GetBytes(body, path); res.Type == gjson.String {
			if msg := strings.TrimSpace(res.String()); msg != "" {
				return msg
			}
		}
	}
	return ""
}

// ValidationFields returns per-field messages carried by err. Client-side
// ValidationErrors are returned as is; HTTP errors are read from the
// {"errors": [...]} or {"errors": {field: msg | [msg]}} envelope.
func ValidationFields(err error) map[string]string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		if len(validationErr.Fields) == 0 {
			return nil
		}
		out := make(map[string]string, len(validationErr.Fields))
		for k, v := range validationErr.Fields {
			out[k] = v
		}
		return out
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return nil
	}
	return fieldsFromBody(httpErr.Body)
}

func fieldsFromBody(body []byte) map[string]string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil
	}
	res := gjson.GetBytes(body, "errors")
	out := map[string]string{}
	switch {
	case res.IsArray():
		res.ForEach(func(_, item gjson.Result) bool {
			if field := item.Get("field").String(); field != "" {
				out[field] = item.Get("message").String()
			}
			return true
		})
	case res.IsObject():
		res.ForEach(func(key, value gjson.Result) bool {
			if value.IsArray() {
				if items := value.Array(); len(items) > 0 {
					out[key.String()] = items[0].String()
				}
				return true
			}
			out[key.String()] = value.String()
			return true
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
