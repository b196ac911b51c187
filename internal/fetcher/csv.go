package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	// Charset names the file's character encoding (e.g. "euc-kr" for the
	// registry's CP949 extracts). Empty means UTF-8.
	Charset   string
	Delimiter rune // default ','
	TrimSpace bool
}

// ReadCSVHeader reads only the first row of a CSV file. Used to decide
// whether a file carries an address column before parsing it in full.
func ReadCSVHeader(path string, opts CSVOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	reader, err := newReader(f, opts)
	if err != nil {
		return nil, err
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	if opts.TrimSpace {
		trimFields(header)
	}
	return header, nil
}

// ReadCSV reads a whole CSV file, returning the header row and the data
// rows. Malformed rows are skipped rather than failing the file: registry
// extracts routinely contain a handful of broken lines.
func ReadCSV(path string, opts CSVOptions) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	reader, err := newReader(f, opts)
	if err != nil {
		return nil, nil, err
	}

	first := true
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if _, ok := readErr.(*csv.ParseError); ok {
				continue // bad line, keep the file
			}
			return header, rows, eris.Wrap(readErr, "csv: read row")
		}

		if opts.TrimSpace {
			trimFields(record)
		}
		if first {
			first = false
			header = record
			continue
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

func newReader(f io.Reader, opts CSVOptions) (*csv.Reader, error) {
	r := f
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(f)
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields
	return reader, nil
}

func trimFields(record []string) {
	for i, field := range record {
		record[i] = strings.TrimSpace(field)
	}
}
