package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/smartqpanel/internal/application"
	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

const (
	hxRequest  = "HX-Request"
	hxTrigger  = "HX-Trigger"
	hxRedirect = "HX-Redirect"
	hxRetarget = "HX-Retarget"
	hxReswap   = "HX-Reswap"

	notifyEvent       = "notify"
	refreshTableEvent = "refresh-table"
)

// toast is the payload of the notify event. HTML carries sanitized detail
// markup such as a field error list.
type toast struct {
	model.Notification
	HTML string `json:"html,omitempty"`
}

func successToast(title, message string) toast {
	return toast{Notification: model.Notification{Level: model.NotifySuccess, Title: title, Message: message}}
}

// trigger queues client events on the response. It must run before the
// status line is written.
func trigger(w http.ResponseWriter, events map[string]any) {
	b, err := json.Marshal(events)
	if err != nil {
		return
	}
	w.Header().Set(hxTrigger, string(b))
}

func notify(w http.ResponseWriter, t toast) {
	trigger(w, map[string]any{notifyEvent: t})
}

// errorToast maps an error to the notification shown to the operator.
func errorToast(err error) toast {
	t := toast{Notification: model.Notification{Level: model.NotifyError}}

	var (
		ve *application.ValidationError
		he *driven.HTTPError
		ne *driven.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		t.Title = "Invalid input"
		t.Message = "Please correct the highlighted fields."
		t.HTML = RenderFieldErrors(validationLists(ve))
	case errors.As(err, &he):
		t.Title = httpErrorTitle(he.Status)
		t.Message = he.Message
		if t.Message == "" {
			t.Message = fmt.Sprintf("The server answered with status %d.", he.Status)
		}
		t.HTML = RenderFieldErrors(he.Fields)
	case errors.As(err, &ne):
		t.Title = "Network error"
		t.Message = "Could not reach the server. Check your connection and try again."
	case errors.Is(err, application.ErrRowBusy):
		t.Level = model.NotifyInfo
		t.Title = "Save in progress"
		t.Message = "Wait for the current save to finish."
	case errors.Is(err, application.ErrNoPendingDelete):
		t.Level = model.NotifyInfo
		t.Title = "Nothing to delete"
		t.Message = "The delete was already confirmed or cancelled."
	case errors.Is(err, application.ErrRowNotFound),
		errors.Is(err, application.ErrNotEditing),
		errors.Is(err, application.ErrReadOnlyColumn),
		errors.Is(err, application.ErrNotSupported):
		t.Title = "Action unavailable"
		t.Message = capitalize(err.Error()) + "."
	default:
		t.Title = "Something went wrong"
		t.Message = "An unexpected error occurred."
	}
	return t
}

func httpErrorTitle(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "Request rejected"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "Not allowed"
	case status == http.StatusNotFound:
		return "Not found"
	case status >= http.StatusInternalServerError:
		return "Server error"
	default:
		return "Request failed"
	}
}

func validationLists(ve *application.ValidationError) map[string][]string {
	out := make(map[string][]string, len(ve.Fields))
	for k, v := range ve.Fields {
		out[k] = []string{v}
	}
	return out
}

// fieldMessages flattens local or upstream field errors to one message per
// field, for inline display next to inputs.
func fieldMessages(err error) map[string]string {
	var ve *application.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	var he *driven.HTTPError
	if errors.As(err, &he) && len(he.Fields) > 0 {
		out := make(map[string]string, len(he.Fields))
		for k, msgs := range he.Fields {
			if len(msgs) > 0 {
				out[k] = msgs[0]
			}
		}
		return out
	}
	return nil
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get(hxRequest) == "true"
}

// redirect navigates the browser, through HX-Redirect for htmx requests.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMX(r) {
		w.Header().Set(hxRedirect, path)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
