package ingest

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
)

// ScanFile reads a local CUR file into raw rows, projecting down to the
// column spellings the normalizer recognizes to bound memory. It returns the
// rows and the file's full column list, so callers can build a ColumnMap from
// what the file actually carries. maxRows caps the rows read when positive.
func ScanFile(ctx context.Context, path string, maxRows int) ([]entity.RawRecord, []string, error) {
	switch {
	case strings.HasSuffix(path, ".parquet"):
		return scanParquet(ctx, path, maxRows)
	case strings.HasSuffix(path, ".csv.gz"):
		return scanCSV(path, true, maxRows)
	case strings.HasSuffix(path, ".csv"):
		return scanCSV(path, false, maxRows)
	default:
		return nil, nil, fmt.Errorf("unsupported file format: %s", path)
	}
}

func scanCSV(path string, gzipped bool, maxRows int) ([]entity.RawRecord, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer gz.Close()
		src = gz
	}

	reader := csv.NewReader(src)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	columns := append([]string(nil), header...)

	// Project to the columns the normalizer knows. A file with no recognized
	// columns at all is read whole, matching the conservative fallback for
	// unexpected vintages.
	known := KnownColumns()
	keep := make([]int, 0, len(columns))
	for i, name := range columns {
		if known[name] {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		keep = keep[:0]
		for i := range columns {
			keep = append(keep, i)
		}
	}

	var rows []entity.RawRecord
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}
		row := make(entity.RawRecord, len(keep))
		for _, i := range keep {
			if i < len(record) {
				row[columns[i]] = record[i]
			}
		}
		rows = append(rows, row)
		if maxRows > 0 && len(rows) >= maxRows {
			break
		}
	}
	return rows, columns, nil
}

func scanParquet(ctx context.Context, path string, maxRows int) ([]entity.RawRecord, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rdr, err := file.NewParquetReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading parquet %s: %w", path, err)
	}
	defer rdr.Close()

	arrowRdr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: 64 * 1024}, memory.DefaultAllocator)
	if err != nil {
		return nil, nil, fmt.Errorf("reading parquet %s: %w", path, err)
	}

	schema, err := arrowRdr.Schema()
	if err != nil {
		return nil, nil, fmt.Errorf("reading parquet schema of %s: %w", path, err)
	}
	columns := make([]string, 0, len(schema.Fields()))
	for _, field := range schema.Fields() {
		columns = append(columns, field.Name)
	}

	tbl, err := readParquetTable(ctx, arrowRdr, rdr.NumRowGroups(), columns)
	if err != nil {
		return nil, nil, fmt.Errorf("reading parquet %s: %w", path, err)
	}
	defer tbl.Release()

	return tableToRows(tbl, maxRows), columns, nil
}

// readParquetTable tries the projected read first and falls back to a full
// table read when projection fails, so an unexpected schema degrades to a
// slower read instead of a lost file.
func readParquetTable(ctx context.Context, arrowRdr *pqarrow.FileReader, numRowGroups int, columns []string) (arrow.Table, error) {
	known := KnownColumns()
	indices := make([]int, 0, len(columns))
	for i, name := range columns {
		if known[name] {
			indices = append(indices, i)
		}
	}

	if len(indices) > 0 {
		rowGroups := make([]int, numRowGroups)
		for i := range rowGroups {
			rowGroups[i] = i
		}
		tbl, err := arrowRdr.ReadRowGroups(ctx, indices, rowGroups)
		if err == nil {
			return tbl, nil
		}
	}
	return arrowRdr.ReadTable(ctx)
}

func tableToRows(tbl arrow.Table, maxRows int) []entity.RawRecord {
	n := int(tbl.NumRows())
	if maxRows > 0 && maxRows < n {
		n = maxRows
	}
	rows := make([]entity.RawRecord, n)
	for i := range rows {
		rows[i] = make(entity.RawRecord, int(tbl.NumCols()))
	}

	for j := 0; j < int(tbl.NumCols()); j++ {
		name := tbl.Schema().Field(j).Name
		offset := 0
		for _, chunk := range tbl.Column(j).Data().Chunks() {
			for i := 0; i < chunk.Len() && offset < n; i, offset = i+1, offset+1 {
				if value, ok := arrowValue(chunk, i); ok {
					rows[offset][name] = value
				}
			}
			if offset >= n {
				break
			}
		}
	}
	return rows
}

func arrowValue(col arrow.Array, i int) (string, bool) {
	if col.IsNull(i) {
		return "", false
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(i), true
	case *array.LargeString:
		return a.Value(i), true
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'f', -1, 64), true
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(i)), 'f', -1, 32), true
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10), true
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(i)), 10), true
	case *array.Boolean:
		return strconv.FormatBool(a.Value(i)), true
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC().Format("2006-01-02T15:04:05Z"), true
	default:
		return fmt.Sprintf("%v", col.GetOneForMarshal(i)), true
	}
}
