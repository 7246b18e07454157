//go:build tools

package tools

// Tool dependencies pinned in go.mod. Migrations are embedded and applied at
// startup; the goose CLI is kept for manual status/down runs.

import (
	_ "github.com/pressly/goose/v3/cmd/goose"
)
