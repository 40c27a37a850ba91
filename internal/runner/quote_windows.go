//go:build windows

package runner

import "strings"

// quotePath wraps path in double quotes for cmd.exe, doubling embedded
// double quotes.
func quotePath(path string) string {
	return `"` + strings.ReplaceAll(path, `"`, `""`) + `"`
}
