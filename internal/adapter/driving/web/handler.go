// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web/templates/components"
	"github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/smartqpanel/internal/application"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	session   *application.SessionService
	catalog   *application.Catalog
	dashboard *application.DashboardService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	session *application.SessionService,
	catalog *application.Catalog,
	dashboard *application.DashboardService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		session:   session,
		catalog:   catalog,
		dashboard: dashboard,
		logger:    logger,
	}
}

// render buffers c so a failed render still produces a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderPage wraps body in the layout with the navbar for active.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, title, active string, body func(csrf string) templ.Component) {
	csrf := csrfToken(w, r)
	nav := toNavViewModel(h.session.Current(), h.catalog.Pages(), active, csrf)
	h.render(w, r, http.StatusOK, templates.Layout(title, nav, body(csrf)))
}

// fail reports err to the operator. A SessionExpiredError navigates to the
// sign-in page and returns true; the caller must not write anything else.
// Other errors queue an error toast.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) bool {
	if driven.IsSessionExpired(err) {
		h.logger.Info("session expired, redirecting to sign-in", "path", r.URL.Path)
		redirect(w, r, expiredLoginURL)
		return true
	}
	h.logger.Warn("request failed", "path", r.URL.Path, "error", err)
	notify(w, errorToast(err))
	return false
}

// readErrorPanel renders a failed read with a retry that reloads url into id.
func readErrorPanel(id, title, url string, err error) templ.Component {
	t := errorToast(err)
	msg := RenderMarkdown(t.Message)
	if t.HTML != "" {
		msg += t.HTML
	}
	return components.ErrorPanel(vm.ErrorPanelViewModel{
		ID:          id,
		Title:       title,
		MessageHTML: msg,
		RetryURL:    url,
	})
}

// --- Session ---

// expiredLoginURL is where a lost session sends the operator. The sign-in
// page shows sessionExpiredNotice for it.
const (
	expiredLoginURL      = "/login?expired=1"
	sessionExpiredNotice = "Your session expired, please sign in again."
)

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.session.Current().SignedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	var l vm.LoginViewModel
	if r.URL.Query().Get("expired") == "1" {
		l.Notice = sessionExpiredNotice
	}
	h.renderLogin(w, r, http.StatusOK, l)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, l vm.LoginViewModel) {
	l.CSRFToken = csrfToken(w, r)
	nav := vm.NavViewModel{CSRFToken: l.CSRFToken}
	h.render(w, r, status, templates.Layout("Sign in", nav, pages.Login(l)))
}

// Login signs in with the submitted credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	_, err := h.session.Login(r.Context(), username, password)
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	l := vm.LoginViewModel{Username: username}
	var (
		ve *application.ValidationError
		he *driven.HTTPError
	)
	status := http.StatusBadGateway
	switch {
	case errors.As(err, &ve):
		status = http.StatusUnprocessableEntity
		l.FieldErrors = ve.Fields
	case errors.As(err, &he) && (he.AuthFailure || he.Status == http.StatusBadRequest):
		status = http.StatusUnauthorized
		l.Error = he.Message
		if l.Error == "" {
			l.Error = "Invalid username or password."
		}
	default:
		h.logger.Error("sign-in failed", "error", err)
		l.Error = errorToast(err).Message
	}
	h.renderLogin(w, r, status, l)
}

// Logout signs out locally and upstream, then returns to the sign-in page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	redirect(w, r, "/login")
}

// requireSession sends signed-out visitors to the sign-in page.
func (h *Handler) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.session.Current().SignedIn() {
			redirect(w, r, "/login")
			return
		}
		next(w, r)
	})
}

// --- Dashboard ---

// Dashboard renders the landing page shell.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "Dashboard", "", func(string) templ.Component {
		return pages.Dashboard()
	})
}

// DashboardContent loads and renders the dashboard fragment.
func (h *Handler) DashboardContent(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Load(r.Context())
	if err != nil {
		if driven.IsSessionExpired(err) {
			redirect(w, r, expiredLoginURL)
			return
		}
		h.logger.Warn("dashboard load failed", "error", err)
		h.render(w, r, http.StatusOK, readErrorPanel("dashboard", "Could not load the dashboard", pages.DashboardContentURL, err))
		return
	}
	h.render(w, r, http.StatusOK, pages.DashboardContent(toDashboardViewModel(d)))
}

// --- Resource pages ---

// page resolves the {resource} path value, answering 404 when unknown.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) (application.Page, bool) {
	p, ok := h.catalog.Page(r.PathValue("resource"))
	if !ok {
		http.NotFound(w, r)
	}
	return p, ok
}

// rowID parses the {id} path value, answering 400 when malformed.
func rowID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid row id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// ResourcePage renders a resource page shell.
func (h *Handler) ResourcePage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	h.renderPage(w, r, p.Title(), p.Name(), func(csrf string) templ.Component {
		return pages.Resource(toPageViewModel(p, csrf))
	})
}

// ResourceTable loads the collection and renders the table fragment, or an
// error panel with a retry action.
func (h *Handler) ResourceTable(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	if err := p.Load(r.Context()); err != nil {
		if driven.IsSessionExpired(err) {
			redirect(w, r, expiredLoginURL)
			return
		}
		h.logger.Warn("table load failed", "resource", p.Name(), "error", err)
		h.render(w, r, http.StatusOK, readErrorPanel("table", "Could not load "+p.Title(), resourcePath(p.Name(), "table"), err))
		return
	}
	h.renderTable(w, r, p)
}

func (h *Handler) renderTable(w http.ResponseWriter, r *http.Request, p application.Page, extra ...templ.Component) {
	c := components.Table(toTableViewModel(p.Table()))
	if len(extra) > 0 {
		c = templ.Join(append([]templ.Component{c}, extra...)...)
	}
	h.render(w, r, http.StatusOK, c)
}

// renderRow answers with the row fragment. A row that no longer exists
// renders as nothing, which removes it from the table.
func (h *Handler) renderRow(w http.ResponseWriter, r *http.Request, p application.Page, id int64, errs map[string]string) {
	t, ok := p.RowTable(id)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	row := toRowViewModel(t.Resource, t.Caps, t.Rows[0], errs)
	h.render(w, r, http.StatusOK, components.Row(row, t.Caps.Edit || t.Caps.Delete))
}

// EditRow switches a row to edit mode.
func (h *Handler) EditRow(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	if err := p.BeginEdit(id); err != nil {
		h.fail(w, r, err)
	}
	h.renderRow(w, r, p, id, nil)
}

// CancelRow discards a row's edits.
func (h *Handler) CancelRow(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	if err := p.CancelEdit(id); err != nil {
		h.fail(w, r, err)
	}
	h.renderRow(w, r, p, id, nil)
}

// SetRowField applies one input change to the working row. Accepted input
// answers 204; rejected input re-renders the row with the message.
func (h *Handler) SetRowField(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	key := r.URL.Query().Get("key")
	err := p.SetField(id, key, r.FormValue(key))
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.fail(w, r, err)
	var ve *application.ValidationError
	if !errors.As(err, &ve) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set(hxRetarget, "#"+components.RowDOMID(p.Name(), id))
	w.Header().Set(hxReswap, "outerHTML")
	h.renderRow(w, r, p, id, ve.Fields)
}

// SaveRow applies the submitted row inputs and commits the row.
func (h *Handler) SaveRow(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if t, found := p.RowTable(id); found {
		var invalid application.ValidationError
		for _, c := range t.Rows[0].Cells {
			vals, present := r.PostForm[c.Key]
			if !c.Editable || !present || len(vals) == 0 {
				continue
			}
			if err := p.SetField(id, c.Key, vals[0]); err != nil {
				var ve *application.ValidationError
				if !errors.As(err, &ve) {
					h.fail(w, r, err)
					h.renderRow(w, r, p, id, nil)
					return
				}
				for k, msg := range ve.Fields {
					invalid.Add(k, msg)
				}
			}
		}
		if err := invalid.OrNil(); err != nil {
			h.fail(w, r, err)
			h.renderRow(w, r, p, id, invalid.Fields)
			return
		}
	}

	if err := p.Save(r.Context(), id); err != nil {
		if h.fail(w, r, err) {
			return
		}
		h.renderRow(w, r, p, id, fieldMessages(err))
		return
	}
	notify(w, successToast("Saved", "Your changes were saved."))
	h.renderRow(w, r, p, id, nil)
}

// DeleteRow marks a row for deletion and opens the confirmation dialog.
func (h *Handler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	if err := p.RequestDelete(id); err != nil {
		h.fail(w, r, err)
		h.render(w, r, http.StatusOK, components.EmptyModal(false))
		return
	}
	h.render(w, r, http.StatusOK, components.ConfirmDelete(vm.ConfirmDeleteViewModel{
		Label:      p.Table().PendingDelete,
		ConfirmURL: resourcePath(p.Name(), "delete", "confirm"),
		CancelURL:  resourcePath(p.Name(), "delete", "cancel"),
	}))
}

// ConfirmDelete deletes the pending row and re-renders the table.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	if _, err := p.ConfirmDelete(r.Context()); err != nil {
		if h.fail(w, r, err) {
			return
		}
	} else {
		notify(w, successToast("Deleted", "The record was deleted."))
	}
	h.renderTable(w, r, p, components.EmptyModal(true))
}

// CancelDelete clears the pending delete and closes the dialog.
func (h *Handler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	p.CancelDelete()
	h.render(w, r, http.StatusOK, components.EmptyModal(false))
}

// CreateRow submits the create form. The form is re-rendered with field
// messages on rejection and reset on success, when the table is refreshed.
func (h *Handler) CreateRow(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	form := p.Form()
	if !p.Caps().Create || form == nil {
		http.Error(w, "create not supported", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	values := make(map[string]string, len(form.Fields))
	for _, f := range form.Fields {
		values[f.Name] = r.PostForm.Get(f.Name)
	}
	csrf := csrfToken(w, r)

	if err := p.Create(r.Context(), values); err != nil {
		if h.fail(w, r, err) {
			return
		}
		fvm := toFormViewModel(p, values, fieldMessages(err), csrf)
		if t := errorToast(err); t.HTML != "" {
			fvm.Error = t.HTML
		} else {
			fvm.Error = RenderMarkdown(t.Message)
		}
		h.render(w, r, http.StatusOK, components.CreateForm(fvm))
		return
	}

	trigger(w, map[string]any{
		notifyEvent:       successToast("Created", singular(p.Title())+" added."),
		refreshTableEvent: true,
	})
	h.render(w, r, http.StatusOK, components.CreateForm(toFormViewModel(p, nil, nil, csrf)))
}
