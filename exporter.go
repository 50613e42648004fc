package statespace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the date format used in exported files.
const DateLayout = "2006-01-02"

// Exporter defines an export interface.
type Exporter interface {
	Write(date time.Time, bands ...Band) error
	Close() error
}

// CSVExporter writes one line per date with, for each series, the estimate and its interval.
type CSVExporter struct {
	delimiter string
	columns   int
	hdlr      io.Writer
}

// Close writes the closing comment and closes the underlying writer if it is closable.
func (e CSVExporter) Close() (err error) {
	if err = e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC())); err != nil {
		return
	}
	if c, ok := e.hdlr.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Write writes the bands of the given date to the CSV file.
func (e CSVExporter) Write(date time.Time, bands ...Band) error {
	if len(bands) != e.columns {
		return fmt.Errorf("expected %d bands, got %d", e.columns, len(bands))
	}
	vals := make([]string, 1+len(bands)*3)
	vals[0] = date.Format(DateLayout)
	for i, b := range bands {
		vals[1+i*3] = fmt.Sprintf("%f", b.Estimate)
		vals[2+i*3] = fmt.Sprintf("%f", b.Lower)
		vals[3+i*3] = fmt.Sprintf("%f", b.Upper)
	}
	return e.WriteRawLn(strings.Join(vals, e.delimiter))
}

// WriteRawLn writes a raw line to the CSV file.
func (e CSVExporter) WriteRawLn(s string) error {
	_, err := io.WriteString(e.hdlr, s+"\n")
	return err
}

// NewCSVExporter initializes a new CSV export in the file dir/filename.
func NewCSVExporter(headers []string, dir, filename string) (e *CSVExporter, err error) {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return
	}
	return NewCSVWriterExporter(headers, f)
}

// NewCSVWriterExporter initializes a new CSV export to the provided writer.
func NewCSVWriterExporter(headers []string, w io.Writer) (*CSVExporter, error) {
	delimiter := ","
	// Header
	hdr := make([]string, 1+len(headers)*3)
	hdr[0] = "date"
	for i, h := range headers {
		hdr[1+i*3] = h
		hdr[2+i*3] = h + "_lower"
		hdr[3+i*3] = h + "_upper"
	}
	e := &CSVExporter{delimiter, len(headers), w}
	if err := e.WriteRawLn(fmt.Sprintf("# Creation date (UTC): %s\n%s", time.Now().UTC(), strings.Join(hdr, delimiter))); err != nil {
		return nil, err
	}
	return e, nil
}
