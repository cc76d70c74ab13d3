package plannerd

import (
	"fmt"
	"io"
	"strings"
)

// Logf writes a server-side diagnostic line. Raw upstream detail goes
// through here and is never surfaced to callers.
func Logf(w io.Writer, prefix, ownerID, format string, a ...any) {
	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	if ownerID != "" {
		parts = append(parts, fmt.Sprintf("owner %s:", ownerID))
	}
	parts = append(parts, fmt.Sprintf(format, a...))
	fmt.Fprintln(w, strings.Join(parts, " "))
}
