// Package encoding provides shared text escaping utilities.
package encoding

import (
	"bytes"
	"encoding/xml"
)

// EscapeXML escapes special characters for XML content.
// Uses the standard library's xml.EscapeText, which also replaces characters
// that are not allowed in XML 1.0 with U+FFFD.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
