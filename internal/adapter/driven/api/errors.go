package api

import (
	"github.com/tidwall/gjson"

	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// newHTTPError builds the typed error for a failure status, pulling a human
// readable message out of the upstream body when one is present.
func newHTTPError(method, path string, status int, body []byte) *driven.HTTPError {
	return &driven.HTTPError{
		Method:  method,
		Path:    path,
		Status:  status,
		Body:    body,
		Message: extractMessage(body),
		Fields:  FieldErrors(body),
	}
}

// extractMessage looks for "message", then "detail", then the first field
// error of a validation body such as {"name": ["This field is required."]}.
func extractMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}

	for _, path := range []string{"message", "detail", "error"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}

	var first string
	gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
		msg := firstString(value)
		if msg == "" {
			return true
		}
		if field := key.String(); field != "non_field_errors" {
			first = field + ": " + msg
		} else {
			first = msg
		}
		return false
	})
	return first
}

func firstString(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return v.Str
	case v.IsArray():
		for _, item := range v.Array() {
			if item.Type == gjson.String && item.Str != "" {
				return item.Str
			}
		}
	}
	return ""
}

// FieldErrors returns the field to messages map of a 400 validation body.
// Bodies that are not field-keyed objects yield nil.
func FieldErrors(body []byte) map[string][]string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil
	}

	out := make(map[string][]string)
	root.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			out[key.String()] = []string{value.Str}
		case value.IsArray():
			for _, item := range value.Array() {
				if item.Type == gjson.String {
					out[key.String()] = append(out[key.String()], item.Str)
				}
			}
		}
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
