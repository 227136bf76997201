// Package csv loads a whole CSV input into memory as rows of strings.
// Row-level validation is left to the caller: rows may have differing
// widths and every cell is kept verbatim.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"

	"orderetl/internal/datasource"
)

// Options configures LoadTable. The zero value reads comma-separated input.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune
}

// LoadTable reads every record from r. The first row (the header, if any)
// is returned like any other row. A leading UTF-8 byte order mark is
// dropped so it never leaks into the first header cell.
//
// Malformed CSV (e.g. an unterminated quote) aborts the load and is
// reported as a *datasource.TableLoadError for the named source.
func LoadTable(name string, r io.Reader, opt Options) ([][]string, error) {
	cr := csv.NewReader(unicode.UTF8BOM.NewDecoder().Reader(r))
	cr.FieldsPerRecord = -1
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}

	rows := make([][]string, 0, 64)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &datasource.TableLoadError{Source: name, Err: fmt.Errorf("read csv: %w", err)}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
