// package formatter exports batch reports, removal results and track listings to JSON, CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/jbtracks/internal/manager"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/shared"
)

// Format is an export format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists the supported formats in flag help order.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat maps a flag value onto a [Format]. "md" and "text" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	}
	return "", fmt.Errorf("%w: unsupported format %q", shared.ErrConfiguration, s)
}

// FormatFromPath infers a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return JSON
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
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

// ReportToCSV converts a BatchReport to CSV with columns: Outcome, Track ID, Name, Error.
//
// Only failures carry a name, since reports keep IDs alone for created and skipped tracks.
func ReportToCSV(report *models.BatchReport) ([]byte, error) {
	var records [][]string
	for _, id := range report.Success {
		records = append(records, []string{models.Created.String(), id, "", ""})
	}
	for _, id := range report.Skipped {
		records = append(records, []string{models.Skipped.String(), id, "", ""})
	}
	for _, f := range report.Failed {
		records = append(records, []string{models.Failed.String(), f.ID, f.Name, f.Error})
	}
	return writeCSV([]string{"Outcome", "Track ID", "Name", "Error"}, records)
}

func countsLine(c models.Counts) string {
	return fmt.Sprintf("%d total, %d created, %d skipped, %d failed", c.Total, c.Created, c.Skipped, c.Failed)
}

// ReportToMarkdown converts a BatchReport to Markdown under the given title
func ReportToMarkdown(report *models.BatchReport, title string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %s\n\n", countsLine(report.Counts)))

	if len(report.Failed) > 0 {
		buf.WriteString("## Failed\n\n")
		buf.WriteString("| Track | Name | Error |\n|---|---|---|\n")
		for _, f := range report.Failed {
			buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n", f.ID, escapeCell(f.Name), escapeCell(f.Error)))
		}
		buf.WriteString("\n")
	}
	writeList(&buf, "Created", report.Success)
	writeList(&buf, "Skipped", report.Skipped)

	return buf.Bytes(), nil
}

func writeList(buf *bytes.Buffer, heading string, ids []string) {
	if len(ids) == 0 {
		return
	}
	buf.WriteString(fmt.Sprintf("## %s\n\n", heading))
	for _, id := range ids {
		buf.WriteString(fmt.Sprintf("- %s\n", id))
	}
	buf.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

// ReportToText converts a BatchReport to plain text
func ReportToText(report *models.BatchReport, title string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", title))
	buf.WriteString(fmt.Sprintf("Tracks: %s\n", countsLine(report.Counts)))

	if len(report.Failed) > 0 {
		buf.WriteString("\nFailed:\n")
		for i, f := range report.Failed {
			buf.WriteString(fmt.Sprintf("%d. %s (%s): %s\n", i+1, f.ID, f.Name, f.Error))
		}
	}
	return buf.Bytes(), nil
}

// ExportReport renders a BatchReport in the given format
func ExportReport(report *models.BatchReport, format Format, title string) ([]byte, error) {
	switch format {
	case JSON:
		return shared.MarshalJSON(report, true)
	case CSV:
		return ReportToCSV(report)
	case Markdown:
		return ReportToMarkdown(report, title)
	case Text:
		return ReportToText(report, title)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrConfiguration, format)
}

// ExportRemoval renders a removal result in the given format.
//
// CSV has one row per step: Step, Path, Removed, Error.
func ExportRemoval(res *manager.Result, format Format, title string) ([]byte, error) {
	switch format {
	case JSON:
		return shared.MarshalJSON(res, true)
	case CSV:
		records := make([][]string, 0, len(res.Steps))
		for _, s := range res.Steps {
			records = append(records, []string{s.Name, s.Path, strconv.Itoa(s.Removed), s.Error})
		}
		return writeCSV([]string{"Step", "Path", "Removed", "Error"}, records)
	case Markdown, Text:
		var buf bytes.Buffer
		status := "succeeded"
		if !res.Success {
			status = "failed"
		}
		if format == Markdown {
			buf.WriteString(fmt.Sprintf("# %s\n\n**Status**: %s\n\n", title, status))
		} else {
			buf.WriteString(fmt.Sprintf("%s\nStatus: %s\n\n", title, status))
		}
		for _, s := range res.Steps {
			line := fmt.Sprintf("%s: %d removed (%s)", s.Name, s.Removed, s.Path)
			if s.Error != "" {
				line += " error: " + s.Error
			}
			if format == Markdown {
				line = "- " + line
			}
			buf.WriteString(line + "\n")
		}
		for _, e := range res.Errors {
			if format == Markdown {
				buf.WriteString(fmt.Sprintf("\n> %s\n", e))
			} else {
				buf.WriteString(fmt.Sprintf("\n! %s\n", e))
			}
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrConfiguration, format)
}

// ExportTracks renders a track listing in the given format
func ExportTracks(tracks []manager.TrackInfo, format Format, title string) ([]byte, error) {
	switch format {
	case JSON:
		if tracks == nil {
			tracks = []manager.TrackInfo{}
		}
		return shared.MarshalJSON(tracks, true)
	case CSV:
		records := make([][]string, 0, len(tracks))
		for _, t := range tracks {
			records = append(records, []string{
				t.TrackID, t.Type, t.Name, t.Category, t.AccessLevel, t.FilePath, strconv.FormatInt(t.FileSize, 10),
			})
		}
		return writeCSV([]string{"Track ID", "Type", "Name", "Category", "Access", "File", "Size"}, records)
	case Markdown:
		var buf bytes.Buffer
		buf.WriteString(fmt.Sprintf("# %s\n\n**Tracks**: %d\n\n", title, len(tracks)))
		buf.WriteString("| Track | Type | Name | Category | Access |\n|---|---|---|---|---|\n")
		for _, t := range tracks {
			buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				t.TrackID, t.Type, escapeCell(t.Name), escapeCell(t.Category), t.AccessLevel))
		}
		return buf.Bytes(), nil
	case Text:
		var buf bytes.Buffer
		buf.WriteString(fmt.Sprintf("%s\nTracks: %d\n\n", title, len(tracks)))
		for i, t := range tracks {
			buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s\n", i+1, t.Type, t.TrackID, t.Name))
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrConfiguration, format)
}

// WriteExport writes data to path, creating parent directories.
func WriteExport(path string, data []byte) error {
	if err := shared.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := shared.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// WriteReport renders a BatchReport and writes it to path.
//
// An empty format is inferred from the file extension.
func WriteReport(path string, format Format, report *models.BatchReport, title string) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	data, err := ExportReport(report, format, title)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	return WriteExport(path, data)
}
