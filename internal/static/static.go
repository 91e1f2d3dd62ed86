package static

import (
	"embed"
)

// StaticFS holds the stylesheet, the script and the icons served under /static.
//
//go:embed static/*
var StaticFS embed.FS
