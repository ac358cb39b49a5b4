package samples

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/search"
)

// ErrEmptyCSV is returned when the input has no header row.
var ErrEmptyCSV = errors.New("csv has no header row")

// CSVDocuments converts CSV content into documents, one per row, keyed by the
// header names. When keyField is not a column, a synthetic key is added holding
// the 1-based row number.
func CSVDocuments(data []byte, keyField string) ([]search.Document, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	hasKey := false
	for _, h := range header {
		if h == keyField {
			hasKey = true
			break
		}
	}

	var docs []search.Document
	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		doc := make(search.Document, len(header)+1)
		for i, h := range header {
			if h == "" || i >= len(record) {
				continue
			}
			doc[h] = record[i]
		}
		if !hasKey && keyField != "" {
			doc[keyField] = strconv.Itoa(row)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
