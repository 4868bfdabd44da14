//go:build tools

// Package bankdef pulls in build-time-only tooling so it is tracked by
// go.mod without being imported by any real package.
package bankdef

import (
	_ "golang.org/x/tools/cmd/stringer"
)
