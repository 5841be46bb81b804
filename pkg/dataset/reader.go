package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/datasleuth/datasleuth/pkg/config"
	"github.com/datasleuth/datasleuth/pkg/sleutherrors"
)

// missingTokens are cell values treated as nulls in delimited files.
var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "null": true, "none": true, "nan": true, "-": true,
}

// Read ingests the file at path into a Dataset. It detects the encoding
// statistically, sniffs the format, and walks a fixed decode ladder until one
// attempt yields at least one column. It returns a typed input or decode
// error instead of panicking on any malformed input.
func Read(path string, cfg *config.Config) (*Dataset, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: analyzing caller-supplied files is the product
	if err != nil {
		return nil, sleutherrors.Wrap(err, sleutherrors.ErrorTypeInput, "failed to read input file").
			WithDetail("path", path)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, sleutherrors.New(sleutherrors.ErrorTypeInput, "input file is empty").
			WithDetail("path", path)
	}

	prefix := raw
	if cfg.EncodingSniffBytes > 0 && len(prefix) > cfg.EncodingSniffBytes {
		prefix = prefix[:cfg.EncodingSniffBytes]
	}
	detected, confidence := DetectEncoding(prefix)
	format := sniffFormat(path, raw)

	attempted := make([]string, 0, 8)
	var lastErr error

	for _, enc := range decodeLadder(detected) {
		attempted = append(attempted, enc)

		decoded, decErr := decodeBytes(raw, enc)
		if decErr != nil {
			lastErr = decErr
			continue
		}

		columns, rows, parseErr := parseDataset(decoded, format, path)
		if parseErr != nil {
			lastErr = parseErr
			continue
		}
		if len(columns) == 0 {
			lastErr = fmt.Errorf("parsed zero columns")
			continue
		}

		return &Dataset{
			Columns:            columns,
			Rows:               rows,
			SourceRows:         len(rows),
			Encoding:           enc,
			EncodingConfidence: confidence,
			Format:             format,
		}, nil
	}

	lastMessage := "no parse attempt succeeded"
	if lastErr != nil {
		lastMessage = lastErr.Error()
	}
	return nil, sleutherrors.New(sleutherrors.ErrorTypeDecode, "could not decode input with any encoding").
		WithDetail("path", path).
		WithDetail("attempted_encodings", attempted).
		WithDetail("last_error", lastMessage)
}

// sniffFormat picks CSV vs JSON by file extension first, falling back to the
// first non-whitespace byte of the payload.
func sniffFormat(path string, raw []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	}

	for _, b := range raw {
		// Skip whitespace, NULs from wide encodings, and BOM bytes.
		switch b {
		case ' ', '\t', '\r', '\n', 0x00, 0xEF, 0xBB, 0xBF, 0xFF, 0xFE:
			continue
		}
		if b == '{' || b == '[' {
			return FormatJSON
		}
		break
	}
	return FormatCSV
}

func parseDataset(decoded []byte, format Format, path string) ([]string, []Row, error) {
	if format == FormatJSON {
		return parseJSONDataset(decoded)
	}

	delimiter := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		delimiter = '\t'
	}
	return parseCSVDataset(decoded, delimiter)
}

// parseCSVDataset parses delimited text. The first record is the header;
// records may carry variable field counts, with short rows padded with nulls
// and long rows extending the header with positional names.
func parseCSVDataset(decoded []byte, delimiter rune) ([]string, []Row, error) {
	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("csv parse failed: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("csv has no records")
	}

	width := 0
	for _, record := range records {
		if len(record) > width {
			width = len(record)
		}
	}

	header := make([]string, width)
	copy(header, records[0])
	columns := NormalizeColumnNames(header)

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = convertCell(record[i])
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

// convertCell types a delimited cell: null tokens become nil, numbers become
// float64, explicit booleans become bool, everything else stays a string.
func convertCell(value string) interface{} {
	value = strings.TrimSpace(value)
	if missingTokens[strings.ToLower(value)] {
		return nil
	}

	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		// ParseFloat accepts "inf" and friends; non-finite cells would poison
		// min/max downstream and cannot be serialized, so they count as missing.
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		return f
	}

	return value
}

// parseJSONDataset tries, in order: newline-delimited records, a single JSON
// array or object of records, and the enveloped shapes `{"data": [...]}` and
// dict-of-arrays.
func parseJSONDataset(data []byte) ([]string, []Row, error) {
	if columns, rows, ok := parseNDJSON(data); ok {
		return columns, rows, nil
	}

	var doc interface{}
	if err := gojson.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("json parse failed: %w", err)
	}

	switch v := doc.(type) {
	case []interface{}:
		return rowsFromRecords(v)
	case map[string]interface{}:
		if envelope, ok := v["data"].([]interface{}); ok {
			return rowsFromRecords(envelope)
		}
		if columns, rows, ok := rowsFromColumnArrays(v); ok {
			return columns, rows, nil
		}
		// A lone object is a dataset of one record.
		return rowsFromRecords([]interface{}{v})
	default:
		return nil, nil, fmt.Errorf("unsupported JSON document shape")
	}
}

// parseNDJSON parses line-delimited JSON objects. Every non-empty line must
// be an object, and at least two lines must qualify: a single object line is
// a whole-document shape (envelope, dict-of-arrays, or lone record) and
// belongs to the document parser.
func parseNDJSON(data []byte) ([]string, []Row, bool) {
	lines := bytes.Split(data, []byte{'\n'})

	records := make([]interface{}, 0, len(lines))
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			return nil, nil, false
		}
		var record map[string]interface{}
		if err := gojson.Unmarshal(line, &record); err != nil {
			return nil, nil, false
		}
		records = append(records, record)
	}

	if len(records) < 2 {
		return nil, nil, false
	}

	columns, rows, err := rowsFromRecords(records)
	if err != nil {
		return nil, nil, false
	}
	return columns, rows, true
}

// rowsFromRecords builds a dataset from a slice of record objects. Column
// order is the sorted union of keys so repeated runs stay byte-identical.
func rowsFromRecords(records []interface{}) ([]string, []Row, error) {
	keySet := make(map[string]bool)
	rows := make([]Row, 0, len(records))

	for _, record := range records {
		obj, ok := record.(map[string]interface{})
		if !ok {
			// Scalar elements become single-column records.
			obj = map[string]interface{}{"value": record}
		}

		row := make(Row, len(obj))
		for key, value := range obj {
			keySet[key] = true
			row[key] = normalizeJSONValue(value)
		}
		rows = append(rows, row)
	}

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	columns := NormalizeColumnNames(keys)
	rekeyRows(rows, keys, columns)

	return columns, rows, nil
}

// rowsFromColumnArrays handles the dict-of-arrays shape where every value is
// a column of cells.
func rowsFromColumnArrays(doc map[string]interface{}) ([]string, []Row, bool) {
	if len(doc) == 0 {
		return nil, nil, false
	}

	keys := make([]string, 0, len(doc))
	length := 0
	for key, value := range doc {
		arr, ok := value.([]interface{})
		if !ok {
			return nil, nil, false
		}
		keys = append(keys, key)
		if len(arr) > length {
			length = len(arr)
		}
	}
	sort.Strings(keys)

	columns := NormalizeColumnNames(keys)
	rows := make([]Row, length)
	for i := range rows {
		rows[i] = make(Row, len(keys))
	}
	for k, key := range keys {
		arr := doc[key].([]interface{})
		for i := 0; i < length; i++ {
			if i < len(arr) {
				rows[i][columns[k]] = normalizeJSONValue(arr[i])
			} else {
				rows[i][columns[k]] = nil
			}
		}
	}

	return columns, rows, true
}

// normalizeJSONValue flattens a decoded JSON value to the scalar cell model.
// Nested arrays and objects are kept as their compact JSON text.
func normalizeJSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil, bool, float64, string:
		return v
	case int64:
		return float64(v)
	default:
		encoded, err := gojson.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// NormalizeColumnNames replaces blank or placeholder names with positional
// col_N names and suffixes duplicates so every column name is unique.
func NormalizeColumnNames(names []string) []string {
	normalized := make([]string, len(names))
	counts := make(map[string]int, len(names))
	taken := make(map[string]bool, len(names))

	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(strings.ToLower(name), "unnamed:") {
			name = "col_" + strconv.Itoa(i)
		}

		if taken[name] {
			n := counts[name]
			candidate := name
			for taken[candidate] {
				n++
				candidate = name + "_" + strconv.Itoa(n)
			}
			counts[name] = n
			name = candidate
		}

		taken[name] = true
		normalized[i] = name
	}

	return normalized
}

// rekeyRows renames row keys in place where normalization changed a column name.
func rekeyRows(rows []Row, oldNames, newNames []string) {
	for i, oldName := range oldNames {
		if oldName == newNames[i] {
			continue
		}
		for _, row := range rows {
			if value, ok := row[oldName]; ok {
				row[newNames[i]] = value
				delete(row, oldName)
			}
		}
	}
}
