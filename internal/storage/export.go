package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExportFormat selects the transcript encoding.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat parses a format name, defaulting to JSON.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// Transcript is the exported form of a session.
type Transcript struct {
	SessionID  uuid.UUID `json:"sessionId"`
	ExportedAt time.Time `json:"exportedAt"`
	Turns      []Turn    `json:"turns"`
}

// Exporter writes stored sessions as JSON or CSV transcripts.
type Exporter struct {
	repo *HistoryRepository
	now  func() time.Time
}

// NewExporter creates an exporter reading from repo.
func NewExporter(repo *HistoryRepository) *Exporter {
	return &Exporter{repo: repo, now: time.Now}
}

// Export writes the session's transcript to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer, sessionID uuid.UUID, format ExportFormat) error {
	turns, err := e.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	switch format {
	case FormatCSV:
		return writeCSV(w, turns)
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Transcript{SessionID: sessionID, ExportedAt: e.now().UTC(), Turns: turns})
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func writeCSV(w io.Writer, turns []Turn) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"position", "timestamp", "role", "text", "anchors", "confidence"}); err != nil {
		return err
	}

	for _, t := range turns {
		confidence := ""
		if t.Confidence != nil {
			confidence = strconv.FormatFloat(*t.Confidence, 'f', 3, 64)
		}
		record := []string{
			strconv.Itoa(t.Position),
			t.CreatedAt.UTC().Format(time.RFC3339),
			string(t.Role),
			t.Text,
			strings.Join(t.Anchors, " "),
			confidence,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
