package adminui

import "embed"

//go:embed templates/*.html
var assets embed.FS
