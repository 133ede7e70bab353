package analytics

import "github.com/apex-analytics/apex-dashboard/internal/dataset"

// TopErrorLimit is the collapsed size of the error list.
const TopErrorLimit = 5

// ErrorList is the visible slice of error_data plus toggle state.
type ErrorList struct {
	Entries []dataset.ErrorEntry
	Total   int
	Hidden  int
	ShowAll bool
}

// Toggleable reports whether expanding changes anything.
func (l ErrorList) Toggleable() bool {
	return l.Total > TopErrorLimit
}

// TopErrors returns the first TopErrorLimit entries, or all of them when
// showAll is set. Upstream order is kept and the input is never modified.
func TopErrors(entries []dataset.ErrorEntry, showAll bool) ErrorList {
	n := len(entries)
	if !showAll && n > TopErrorLimit {
		n = TopErrorLimit
	}
	visible := make([]dataset.ErrorEntry, n)
	copy(visible, entries[:n])
	return ErrorList{
		Entries: visible,
		Total:   len(entries),
		Hidden:  len(entries) - n,
		ShowAll: showAll,
	}
}
