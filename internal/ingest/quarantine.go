package ingest

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/google/uuid"
)

// QuarantinedRow is one rejected input row, kept with enough context to trace
// it back to the raw feed.
type QuarantinedRow struct {
	ID         uuid.UUID
	SourceFile string
	Line       int
	Reason     string
	Raw        []string
}

func newQuarantinedRow(source string, line int, raw []string, reason string) QuarantinedRow {
	return QuarantinedRow{
		ID:         uuid.New(),
		SourceFile: source,
		Line:       line,
		Reason:     reason,
		Raw:        append([]string(nil), raw...),
	}
}

// WriteQuarantine serialises quarantined rows as CSV for operator review.
func WriteQuarantine(w io.Writer, rows []QuarantinedRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"id", "source_file", "line", "reason", "raw"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{row.ID.String(), row.SourceFile, strconv.Itoa(row.Line), row.Reason}
		record = append(record, row.Raw...)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
