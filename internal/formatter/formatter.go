// package formatter renders ranked roster pages to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/roster"
	"github.com/desertthunder/roster/internal/shared"
)

// Format names an output format accepted by [Render].
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{Text, JSON, CSV, Markdown}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case Text, JSON, CSV, Markdown:
		return f, nil
	case "md":
		return Markdown, nil
	case "":
		return Text, nil
	}
	return "", fmt.Errorf("%w: format must be one of text, json, csv, markdown (got %q)", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension used by [WriteExport].
func (f Format) Extension() string {
	switch f {
	case JSON:
		return ".json"
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	default:
		return ".txt"
	}
}

// Report is a ranked set of students along with the query that produced it.
type Report struct {
	Title   string                 `json:"title"`
	Mode    string                 `json:"mode"`
	Entries []roster.RankedStudent `json:"students"`
}

// NewReport titles entries after the state's mode. trackName labels track filters and may be empty.
func NewReport(state roster.State, trackName string, entries []roster.RankedStudent) *Report {
	mode := state.Mode()
	title := "Leaderboard"
	switch mode {
	case roster.SearchByName:
		title = fmt.Sprintf("Students matching %q", state.SearchText)
	case roster.SearchByPhone:
		title = fmt.Sprintf("Students with phone containing %q", state.SearchText)
	case roster.FilterByTrack:
		if trackName == "" {
			trackName = state.TrackID
		}
		title = fmt.Sprintf("Track: %s", trackName)
	}

	if entries == nil {
		entries = []roster.RankedStudent{}
	}
	return &Report{Title: title, Mode: mode.String(), Entries: entries}
}

// TrackNames joins a student's track names for single-column output.
func TrackNames(tracks []models.Track, sep string) string {
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = t.Name
	}
	return strings.Join(names, sep)
}

// Render encodes r in format f.
func Render(r *Report, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return ExportToJSON(r)
	case CSV:
		return ExportToCSV(r)
	case Markdown:
		return ExportToMarkdown(r)
	case Text:
		return ExportToText(r)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToCSV converts a Report to CSV format with columns: Rank, ID, Name, Total Score, Tracks
func ExportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "ID", "Name", "Total Score", "Tracks"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range r.Entries {
		record := []string{
			strconv.Itoa(e.Rank),
			e.ID,
			e.Name,
			strconv.Itoa(e.TotalScore),
			TrackNames(e.Tracks, "; "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Report to a Markdown table
func ExportToMarkdown(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	buf.WriteString(fmt.Sprintf("**Students**: %d\n\n", len(r.Entries)))

	if len(r.Entries) == 0 {
		buf.WriteString("_No students found._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Rank | Name | Total Score | Tracks |\n")
	buf.WriteString("| ---: | ---- | ----------: | ------ |\n")
	for _, e := range r.Entries {
		rank := strconv.Itoa(e.Rank)
		if e.Podium {
			rank = "**" + rank + "**"
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n",
			rank, escapeCell(e.Name), e.TotalScore, escapeCell(TrackNames(e.Tracks, ", "))))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Report to plain text format
func ExportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", r.Title))
	buf.WriteString(fmt.Sprintf("Students: %d\n\n", len(r.Entries)))

	if len(r.Entries) == 0 {
		buf.WriteString("No students found\n")
		return buf.Bytes(), nil
	}

	for _, e := range r.Entries {
		marker := " "
		if e.Podium {
			marker = "*"
		}
		line := fmt.Sprintf("%s%3d. %s (%d)", marker, e.Rank, e.Name, e.TotalScore)
		if len(e.Tracks) > 0 {
			line += " [" + TrackNames(e.Tracks, ", ") + "]"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the report, indented.
func ExportToJSON(r *Report) ([]byte, error) {
	return shared.MarshalJSON(r, true)
}

// WriteExport renders r and writes it to path.
//
// Defaults to roster{ext} in the working directory.
func WriteExport(r *Report, path string, f Format) (string, error) {
	if path == "" {
		path = "roster" + f.Extension()
	}

	data, err := Render(r, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportManifest summarizes a multi-file export.
type ExportManifest struct {
	ExportedAt time.Time       `json:"exported_at"`
	Format     Format          `json:"format"`
	Total      int             `json:"total"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Entries    []ManifestEntry `json:"entries"`
}

// ManifestEntry is one exported report in an [ExportManifest].
type ManifestEntry struct {
	Name     string `json:"name"`
	File     string `json:"file,omitempty"`
	Students int    `json:"students"`
	Error    string `json:"error,omitempty"`
}

// WriteExportManifest writes m as indented JSON to path.
func WriteExportManifest(m *ExportManifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
