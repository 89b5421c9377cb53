package model

import "time"

// Credential holds a stored credential key-value pair. Service identifies
// the namespace ("smartq"), and Key identifies the credential type within
// that namespace ("refresh").
type Credential struct {
	ID        int64
	Service   string
	Key       string
	Value     string
	UpdatedAt time.Time
}

// CredentialPair is the token pair issued by the login endpoint.
type CredentialPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginRequest is the body of POST /auth/login/.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=5,containsany=abcdefghijklmnopqrstuvwxyz"`
}

// LoginResult is the response of POST /auth/login/.
type LoginResult struct {
	Tokens CredentialPair `json:"tokens"`
	User   Profile        `json:"user"`
}
