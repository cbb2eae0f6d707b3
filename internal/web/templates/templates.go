// Package templates embeds the HTML pages and static assets served by the web
// package.
package templates

import "embed"

//go:embed *.html pages/*.html static
var FS embed.FS
