package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/genyouth/wellness/internal/domain"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printEvents lists the events a ledger operation emitted.
func printEvents(w io.Writer, events []domain.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case domain.EventLevelUp:
			fmt.Fprintf(w, "[level] %s\n", ev.Title)
		default:
			fmt.Fprintf(w, "[%s] %s (+%d points)\n", ev.Kind, ev.Title, ev.Points)
		}
	}
}
