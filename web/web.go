// Package web embeds the static landing page served under /static/.
package web

import "embed"

//go:embed static
var StaticFS embed.FS
