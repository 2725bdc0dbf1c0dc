// Package Templates holds the server-rendered pages.
package Templates

import "embed"

//go:embed *.html
var Files embed.FS
