// Package assets holds files compiled into the binary.
package assets

import _ "embed"

// DefaultResume is the résumé document served when no resume.path is configured.
//
//go:embed resume.yaml
var DefaultResume []byte
