package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/tolltag/core/toll"
)

// Formats lists the accepted output formats.
var Formats = []string{"text", "csv", "json"}

// Write renders quotes in the given format.
func Write(w io.Writer, format string, quotes []toll.Quote) error {
	switch format {
	case "", "text":
		return WriteText(w, quotes)
	case "csv":
		return WriteCSV(w, quotes)
	case "json":
		return WriteJSON(w, quotes)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteText writes one sentence per quote.
func WriteText(w io.Writer, quotes []toll.Quote) error {
	for _, q := range quotes {
		if _, err := fmt.Fprintf(w, "The toll for a %s is %s (%s)\n", DisplayName(q), q.Amount, q.Rule); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the quotes to w as a JSON array.
func WriteJSON(w io.Writer, quotes []toll.Quote) error {
	if quotes == nil {
		quotes = []toll.Quote{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(quotes)
}

// WriteCSV writes the quotes to w in CSV format with a header row.
func WriteCSV(w io.Writer, quotes []toll.Quote) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"quote_id", "time", "vehicle", "rule", "amount"}); err != nil {
		return err
	}
	for _, q := range quotes {
		rec := []string{
			q.ID,
			q.Time.UTC().Format(time.RFC3339),
			q.Kind.String(),
			string(q.Rule),
			q.Amount.Decimal(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DisplayName is the vehicle kind as prose ("delivery truck").
func DisplayName(q toll.Quote) string {
	name := []byte(q.Kind.String())
	for i, c := range name {
		if c == '_' {
			name[i] = ' '
		}
	}
	return string(name)
}
