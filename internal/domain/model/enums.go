package model

// Role is the access level of a panel user.
type Role string

const (
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Roles lists the assignable roles in display order.
var Roles = []Role{RoleManager, RoleStaff}

// SessionState is the position of the credential refresh state machine.
type SessionState string

const (
	SessionAuthorized     SessionState = "authorized"
	SessionRefreshPending SessionState = "refresh_pending"
	SessionUnauthorized   SessionState = "unauthorized"
)

// NotificationLevel selects the toast style.
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
	NotifyInfo    NotificationLevel = "info"
)
