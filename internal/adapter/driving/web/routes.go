package web

import (
	"io/fs"
	"net/http"

	"github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web/templates/pages"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Web routes serve HTML at /, /login and /app/* paths.
// Static assets are served from the embedded filesystem at /static/*.
// Every POST route requires the CSRF double-submit token.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Session.
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.Handle("POST /login", csrfProtect(http.HandlerFunc(h.Login)))
	mux.Handle("POST /logout", csrfProtect(http.HandlerFunc(h.Logout)))

	// Page routes.
	mux.Handle("GET /{$}", h.requireSession(h.Dashboard))
	mux.Handle("GET "+pages.DashboardContentURL, h.requireSession(h.DashboardContent))
	mux.Handle("GET /app/{resource}", h.requireSession(h.ResourcePage))
	mux.Handle("GET /app/{resource}/table", h.requireSession(h.ResourceTable))

	// Mutations.
	post := func(pattern string, fn http.HandlerFunc) {
		mux.Handle("POST "+pattern, csrfProtect(h.requireSession(fn)))
	}
	post("/app/{resource}", h.CreateRow)
	post("/app/{resource}/rows/{id}/edit", h.EditRow)
	post("/app/{resource}/rows/{id}/cancel", h.CancelRow)
	post("/app/{resource}/rows/{id}/field", h.SetRowField)
	post("/app/{resource}/rows/{id}/save", h.SaveRow)
	post("/app/{resource}/rows/{id}/delete", h.DeleteRow)
	post("/app/{resource}/delete/confirm", h.ConfirmDelete)
	post("/app/{resource}/delete/cancel", h.CancelDelete)
}
