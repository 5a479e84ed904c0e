// Package web embeds the HTML templates used for rendered documents.
package web

import "embed"

// Templates embeds document templates.
//
//go:embed templates/reports/*.html
var Templates embed.FS
