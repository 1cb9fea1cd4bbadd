package stubs

import "fmt"

// FormatHex formats a guest address/value for a Log detail string.
func FormatHex(v uint32) string {
	return fmt.Sprintf("%#x", v)
}
