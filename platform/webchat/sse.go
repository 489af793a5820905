package webchat

import (
	"fmt"
	"io"
	"strings"
)

// writeEvent writes one server-sent event. Each line of data gets its own
// "data:" field so embedded newlines survive.
func writeEvent(w io.Writer, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}
