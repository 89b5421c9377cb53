package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/smartqpanel/internal/application"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// SessionResponse is the JSON representation of the signed-in state.
type SessionResponse struct {
	SignedIn        bool   `json:"signed_in"`
	Username        string `json:"username,omitempty"`
	DisplayName     string `json:"display_name,omitempty"`
	Role            string `json:"role,omitempty"`
	State           string `json:"state"`
	AccessExpiresAt string `json:"access_expires_at,omitempty"`
	Durable         bool   `json:"durable"`
}

// toSessionResponse converts the application session info to its JSON representation.
func toSessionResponse(info application.SessionInfo) SessionResponse {
	resp := SessionResponse{
		SignedIn: info.SignedIn(),
		State:    string(info.State),
		Durable:  info.Durable,
	}
	if info.Profile != nil {
		resp.Username = info.Profile.Username
		resp.DisplayName = info.Profile.DisplayName()
		resp.Role = string(info.Profile.Role)
	}
	if !info.AccessExpiresAt.IsZero() {
		resp.AccessExpiresAt = info.AccessExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}
