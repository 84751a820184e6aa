// Package web serves the embedded browser GUI.
package web

import "embed"

// StaticFS holds the embedded GUI assets (index page, stylesheet, app JS).
//
//go:embed static/*
var StaticFS embed.FS
