package roster

import "github.com/desertthunder/roster/internal/models"

// PageRange converts a 1-based page and a positive page size into the inclusive store range.
//
// Callers guarantee page >= 1.
func PageRange(page, pageSize int) models.Range {
	from := (page - 1) * pageSize
	return models.Range{From: from, To: from + pageSize - 1}
}

// GlobalRank returns the 1-based rank of the item at zero-based index on page.
//
// The rank assumes page fetches share one stable sort; a store whose tie-break
// for equal scores varies between calls can rank pages >= 2 inconsistently.
func GlobalRank(page, pageSize, index int) int {
	return (page-1)*pageSize + index + 1
}

// IsPodium reports whether rank gets the top-three highlight: page 1 of the unfiltered roster only.
//
// Any search text hides the highlight, even whitespace that still browses in Default mode.
func IsPodium(s State, rank int) bool {
	return s.SearchText == "" && s.TrackID == "" && s.Page == 1 && rank >= 1 && rank <= 3
}
