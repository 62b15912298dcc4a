// Package search compiles the compact ticket query language into a
// structured filter for the storage contract.
//
// The grammar is a whitespace-separated token list. A token of the form
// key:value with key in {status, priority, assignee, label} sets the
// corresponding filter field; every other token feeds the free-text
// search fragment. Example: "status:in_progress assignee:john bug"
// filters to in-progress tickets assigned to john whose title or
// description matches "bug".
package search

import (
	"strings"

	"github.com/ticketkit/ticketkit/internal/types"
)

// Compile parses a query string into a ticket filter scoped to the
// given board.
//
// Rules, preserved exactly from the original query language:
//   - Repeated recognized keys: the last occurrence wins.
//   - A token with an empty key (":value") or empty value ("key:")
//     falls through to the free-text fragment.
//   - Bare words accumulate into one whitespace-joined free-text
//     string, trimmed at the end.
//   - A key:value token with an unrecognized key replaces the free-text
//     fragment accumulated so far rather than appending to it.
func Compile(boardID, query string) types.TicketQuery {
	q := types.TicketQuery{BoardID: boardID}

	for _, token := range strings.Fields(query) {
		parts := strings.Split(token, ":")
		var key, value string
		key = parts[0]
		if len(parts) > 1 {
			value = parts[1]
		}

		if key != "" && value != "" {
			switch key {
			case "status":
				q.Status = value
			case "priority":
				q.Priority = value
			case "assignee":
				q.Assignee = value
			case "label":
				q.Label = value
			default:
				q.Search = token
			}
			continue
		}

		if q.Search == "" {
			q.Search = token
		} else {
			q.Search += " " + token
		}
	}

	q.Search = strings.TrimSpace(q.Search)
	return q
}
