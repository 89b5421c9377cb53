package web

import "embed"

// StaticFS holds the embedded static assets (stylesheet, CSRF and toast scripts).
//
//go:embed static/*
var StaticFS embed.FS
