package model

// Notification is a transient, non-blocking message shown to the operator.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
}
