package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/alphard-edu/exam-registration-api/internal/models"
)

var exportHeaders = []string{"ID", "First name", "Last name", "Birth date", "CNP", "Phone", "Email", "Exam", "Done", "Created at"}

func record(s models.Submission) []string {
	done := "no"
	if s.Done {
		done = "yes"
	}
	return []string{
		strconv.FormatInt(s.ID, 10),
		s.FirstName,
		s.LastName,
		s.BirthDate.Format("2006-01-02"),
		s.CNP,
		s.Phone,
		s.Email,
		s.Exam,
		done,
		s.CreatedAt.Format("2006-01-02 15:04"),
	}
}

// CSVExporter renders submissions into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the given rows.
func (e *CSVExporter) Render(rows []models.Submission) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(record(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
