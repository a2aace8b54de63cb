package webdriver

import (
	"errors"
	"fmt"
	"net/http"
)

// W3C error codes used by this package.
const (
	codeNoSuchElement = "no such element"
	codeStaleElement  = "stale element reference"
	codeScriptError   = "javascript error"
	codeTimeout       = "timeout"
	codeUnknown       = "unknown error"
)

// legacyStatus maps JSON wire protocol status numbers to W3C error codes.
var legacyStatus = map[int]string{
	7:  codeNoSuchElement,
	10: codeStaleElement,
	17: codeScriptError,
	21: codeTimeout,
	13: codeUnknown,
}

// Error is an error payload returned by the automation server.
type Error struct {
	Code       string // W3C error code, e.g. "no such element"
	Message    string
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNoSuchElement reports whether err means the locator matched nothing.
func IsNoSuchElement(err error) bool {
	var wdErr *Error
	if errors.As(err, &wdErr) {
		return wdErr.Code == codeNoSuchElement
	}
	return false
}

// IsScriptError reports whether err came from a failing page script.
func IsScriptError(err error) bool {
	var wdErr *Error
	if errors.As(err, &wdErr) {
		return wdErr.Code == codeScriptError
	}
	return false
}

// parseError extracts an error from a decoded response, or returns nil.
func parseError(result map[string]interface{}, httpStatus int) *Error {
	// W3C: {"value": {"error": "...", "message": "..."}}
	if value, ok := result["value"].(map[string]interface{}); ok {
		if code, ok := value["error"].(string); ok && code != "" {
			msg, _ := value["message"].(string)
			return &Error{Code: code, Message: msg, HTTPStatus: httpStatus}
		}
	}

	// JSON wire: {"status": 7, "value": {"message": "..."}}
	if status, ok := result["status"].(float64); ok && status != 0 {
		code, known := legacyStatus[int(status)]
		if !known {
			code = codeUnknown
		}
		msg := ""
		if value, ok := result["value"].(map[string]interface{}); ok {
			msg, _ = value["message"].(string)
		}
		return &Error{Code: code, Message: msg, HTTPStatus: httpStatus}
	}

	if httpStatus >= http.StatusBadRequest {
		return &Error{Code: codeUnknown, Message: http.StatusText(httpStatus), HTTPStatus: httpStatus}
	}
	return nil
}
