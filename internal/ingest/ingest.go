// Package ingest loads the returns panel CSV: an index column, a date
// column, N asset-return columns and a trailing benchmark column. Cells
// are decimal daily returns, not prices; dates are opaque "M/D/YYYY"
// strings compared only for equality elsewhere in the module.
//
// This is a boundary collaborator, not part of the numerical core: the
// core never touches a file handle.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/aristath/quantport/internal/errs"
	"github.com/aristath/quantport/internal/matrixops"
)

// Panel is the loaded returns data: an T x N returns matrix, the aligned
// benchmark series, and the date column, all indexed the same way.
type Panel struct {
	Returns   *matrixops.Matrix
	Benchmark []float64
	Dates     []string
	AssetCols int
}

// LoadCSV reads path, a CSV file with columns [index, date, asset_1..N,
// benchmark]. A first row whose index column does not parse as an integer
// is treated as a header and skipped; otherwise every row is data. Returns
// InputError on malformed rows, non-numeric cells or a shape mismatch
// across rows.
func LoadCSV(path string) (*Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "ingest.LoadCSV", map[string]any{"path": path}, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.KindIO, "ingest.LoadCSV", map[string]any{"path": path}, err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.KindInput, "ingest.LoadCSV", map[string]any{"path": path, "reason": "empty file"})
	}

	if looksLikeHeader(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.KindInput, "ingest.LoadCSV", map[string]any{"path": path, "reason": "no data rows"})
	}

	cols := len(rows[0])
	if cols < 3 {
		return nil, errs.New(errs.KindInput, "ingest.LoadCSV", map[string]any{"path": path, "cols": cols})
	}
	assetCols := cols - 3 // index, date, ..., benchmark

	t := len(rows)
	data := make([]float64, t*assetCols)
	benchmark := make([]float64, t)
	dates := make([]string, t)

	for i, row := range rows {
		if len(row) != cols {
			return nil, errs.New(errs.KindInput, "ingest.LoadCSV", map[string]any{"path": path, "row": i, "expected_cols": cols, "got_cols": len(row)})
		}
		dates[i] = row[1]
		for a := 0; a < assetCols; a++ {
			v, err := strconv.ParseFloat(row[2+a], 64)
			if err != nil {
				return nil, errs.Wrap(errs.KindInput, "ingest.LoadCSV", map[string]any{"path": path, "row": i, "col": 2 + a}, err)
			}
			data[i*assetCols+a] = v
		}
		b, err := strconv.ParseFloat(row[cols-1], 64)
		if err != nil {
			return nil, errs.Wrap(errs.KindInput, "ingest.LoadCSV", map[string]any{"path": path, "row": i, "col": cols - 1}, err)
		}
		benchmark[i] = b
	}

	returns, err := matrixops.NewMatrix(t, assetCols, data)
	if err != nil {
		return nil, err
	}

	return &Panel{Returns: returns, Benchmark: benchmark, Dates: dates, AssetCols: assetCols}, nil
}

// looksLikeHeader reports whether row's index column fails to parse as
// an integer, evidence the row is a text header rather than data.
func looksLikeHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	if _, err := strconv.Atoi(row[0]); err == nil {
		return false
	}
	return true
}
