// Package report summarizes a crawl session's progress for periodic status
// logging, independent of the Prometheus metrics the scheduler also emits.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"
)

// Summary holds a point-in-time snapshot of scheduler progress.
type Summary struct {
	StartTime       time.Time
	Snapshot        time.Time
	Fetched         int
	Skipped         int
	Errors          int
	Extracted       int
	LinksDiscovered int
	LinksEnqueued   int
	Indexed         int
	QueueLength     int
}

// Uptime reports how long the scheduler has been running as of Snapshot.
func (s Summary) Uptime() time.Duration {
	return s.Snapshot.Sub(s.StartTime)
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

const textTmpl = `Crawl Status
------------
Uptime:          {{.Uptime}}
Queue length:    {{.QueueLength}}
Fetched:         {{.Fetched}}
Skipped:         {{.Skipped}}
Errors:          {{.Errors}}
Extracted:       {{.Extracted}}
Links found:     {{.LinksDiscovered}}
Links enqueued:  {{.LinksEnqueued}}
Indexed:         {{.Indexed}}
`

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	t, err := template.New("statusReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
