package tasks

import (
	"fmt"

	"github.com/desertthunder/roster/internal/roster"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	FetchPage
	WriteReport
	ExportTrack
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case FetchPage:
		return "fetch_page"
	case WriteReport:
		return "write_report"
	case ExportTrack:
		return "export_track"
	default:
		return ""
	}
}

func fetchTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d tracks", count),
	}
}

func fetchPageUpdate(res roster.Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    res.State.Page,
		Message: fmt.Sprintf("Fetched page %d (%d students, %s)", res.State.Page, len(res.Students), res.Mode),
		Data:    res.Range,
	}
}

func writeReportUpdate(path string, students int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteReport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %d students to %s", students, path),
	}
}

func exportCompletedUpdate(step, total int, name string, students int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d students)", step, total, name, students),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
