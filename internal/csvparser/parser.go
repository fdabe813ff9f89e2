// =============================================================================
// CSV to Tally Sync - CSV Parser Module
// =============================================================================
//
// This module reads transaction exports in CSV form. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Legacy single-byte encodings (ISO-8859-1, Windows-1252)
//   - A UTF-8 byte order mark on the header row (common in Excel exports)
//   - Blank lines between records
//
// Rows are streamed one at a time and returned as header -> value maps.
//
// USAGE:
//   parser, err := NewStreamingParser(filePath, settings)
//   if err != nil {
//       return err
//   }
//   defer parser.Close()
//
//   for parser.Next() {
//       row := parser.Row()
//       // Process the row...
//   }
//
//   if err := parser.Err(); err != nil {
//       return err
//   }
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/config"
)

const byteOrderMark = "\uFEFF"

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads a CSV file row by row.
type StreamingParser struct {
	closer     io.Closer
	reader     *csv.Reader
	headers    []string
	currentRow map[string]string
	rowNumber  int
	err        error
}

// NewStreamingParser opens a CSV file and reads its header row.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings.
//
// RETURNS:
//   - A pointer to the StreamingParser.
//   - An error if the file cannot be opened or has no header row.
func NewStreamingParser(filePath string, settings config.CSVSettings) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	parser, err := NewReaderParser(file, settings)
	if err != nil {
		file.Close()
		return nil, err
	}
	parser.closer = file

	return parser, nil
}

// NewReaderParser is NewStreamingParser over an already open reader.
// The caller keeps ownership of r.
func NewReaderParser(r io.Reader, settings config.CSVSettings) (*StreamingParser, error) {
	decoded, err := decodeReader(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	configureReader(reader, settings)

	parser := &StreamingParser{reader: reader}
	if err := parser.readHeaders(); err != nil {
		return nil, err
	}

	return parser, nil
}

// decodeReader wraps r so that it yields UTF-8.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToUpper(strings.TrimSpace(encoding)) {
	case "", "UTF-8", "UTF8":
		return r, nil
	case "ISO-8859-1", "LATIN1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}

// readHeaders reads and cleans the header row.
func (p *StreamingParser) readHeaders() error {
	row, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return fmt.Errorf("error reading header row: %w", err)
	}
	p.rowNumber++

	if len(row) > 0 {
		row[0] = strings.TrimPrefix(row[0], byteOrderMark)
	}

	p.headers = CleanHeaders(row)
	return nil
}

// Next advances to the next non-empty row. Returns false when there are no
// more rows or an error occurred.
func (p *StreamingParser) Next() bool {
	for p.err == nil {
		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row after line %d: %w", p.rowNumber, err)
			return false
		}

		p.rowNumber, _ = p.reader.FieldPos(0)

		if IsRowEmpty(row) {
			continue
		}

		p.currentRow = RowToMap(p.headers, row)
		return true
	}
	return false
}

// Row returns the current row as a map.
func (p *StreamingParser) Row() map[string]string {
	return p.currentRow
}

// Headers returns the parsed headers.
func (p *StreamingParser) Headers() []string {
	return p.headers
}

// RowNumber returns the line the current row starts on (header is line 1).
func (p *StreamingParser) RowNumber() int {
	return p.rowNumber
}

// Err returns any error that occurred during parsing.
func (p *StreamingParser) Err() error {
	return p.err
}

// Close closes the underlying file, if the parser opened one.
func (p *StreamingParser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// CleanHeaders trims headers and names empty ones Column_N.
func CleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// RowToMap pairs headers with trimmed cell values. Missing cells map to "".
func RowToMap(headers, row []string) map[string]string {
	rowMap := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(row) {
			rowMap[header] = strings.TrimSpace(row[i])
		} else {
			rowMap[header] = ""
		}
	}
	return rowMap
}

// IsRowEmpty checks if a row contains only empty values.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
