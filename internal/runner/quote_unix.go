//go:build !windows

package runner

import "strings"

// quotePath wraps path in single quotes so the shell treats it as one
// literal word. Embedded single quotes close the quoting, emit an
// escaped quote, and reopen it.
func quotePath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
