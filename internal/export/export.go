// Package export renders activity audit trails to JSON or CSV for
// reporting.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ticketkit/ticketkit/internal/types"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Options controls activity export rendering.
type Options struct {
	// Format is the output encoding; defaults to JSON.
	Format Format

	// Timezone is an IANA zone name for timestamps, e.g.
	// "America/New_York". Empty or unknown zones fall back to UTC.
	Timezone string
}

// ActivityLog renders activities to the requested format. Ticket
// titles come from the titles map keyed by ticket ID; activities whose
// ticket is gone render with an empty title.
func ActivityLog(activities []*types.Activity, titles map[string]string, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatCSV:
		return renderCSV(activities, titles, opts.Timezone), nil
	case FormatJSON, "":
		return renderJSON(activities, titles, opts.Timezone)
	default:
		return nil, fmt.Errorf("unknown export format: %s", opts.Format)
	}
}

// formatTimestamp renders a timestamp in the requested zone. With no
// zone (or one the host cannot resolve) it renders ISO-ish UTC; with a
// valid zone it renders the locale style the reporting tooling expects.
func formatTimestamp(t time.Time, timezone string) string {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return t.In(loc).Format("01/02/2006, 15:04:05") + " (" + timezone + ")"
		}
	}
	return t.UTC().Format("2006-01-02 15:04:05") + " UTC"
}

// details produces the human-readable summary column for an activity.
func details(activity *types.Activity) string {
	ch := activity.Changes
	switch activity.Action {
	case types.ActionStatusChanged:
		if status, ok := ch["status"].(map[string]any); ok {
			return fmt.Sprintf("%v → %v", status["old"], status["new"])
		}
	case types.ActionAssigned:
		if assignees, ok := ch["assignees"].([]any); ok {
			names := make([]string, len(assignees))
			for i, a := range assignees {
				names[i] = fmt.Sprint(a)
			}
			return "Assigned to: " + strings.Join(names, ", ")
		}
	case types.ActionAttachmentAdded:
		if filename, ok := ch["filename"]; ok {
			return fmt.Sprintf("Added: %v", filename)
		}
	case types.ActionAttachmentDeleted:
		if filename, ok := ch["filename"]; ok {
			return fmt.Sprintf("Deleted: %v", filename)
		}
	case types.ActionCreated, types.ActionCommented:
		return ""
	}
	if len(ch) == 0 {
		return ""
	}
	raw, err := json.Marshal(ch)
	if err != nil {
		return ""
	}
	return string(raw)
}

type jsonRecord struct {
	ID          string         `json:"id"`
	TicketID    string         `json:"ticket_id"`
	TicketTitle string         `json:"ticket_title"`
	Actor       string         `json:"actor"`
	Action      string         `json:"action"`
	Changes     map[string]any `json:"changes"`
	CreatedAt   string         `json:"created_at"`
}

func renderJSON(activities []*types.Activity, titles map[string]string, timezone string) ([]byte, error) {
	records := make([]jsonRecord, 0, len(activities))
	for _, activity := range activities {
		records = append(records, jsonRecord{
			ID:          activity.ID,
			TicketID:    activity.TicketID,
			TicketTitle: titles[activity.TicketID],
			Actor:       activity.Actor,
			Action:      string(activity.Action),
			Changes:     activity.Changes,
			CreatedAt:   formatTimestamp(activity.CreatedAt, timezone),
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

// csvCell quotes a CSV cell. Every cell is quoted and embedded quotes
// are doubled, so commas and newlines in content never break rows.
func csvCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func renderCSV(activities []*types.Activity, titles map[string]string, timezone string) []byte {
	var b strings.Builder
	b.WriteString("timestamp,ticket_id,ticket_title,actor,action,details\n")
	for _, activity := range activities {
		row := []string{
			formatTimestamp(activity.CreatedAt, timezone),
			activity.TicketID,
			titles[activity.TicketID],
			activity.Actor,
			string(activity.Action),
			details(activity),
		}
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvCell(cell))
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
