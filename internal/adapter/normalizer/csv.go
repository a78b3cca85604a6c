package normalizer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iho/cardledger/internal/domain"
)

var csvColumnAliases = map[string]string{
	"id":          "id",
	"external_id": "id",
	"fitid":       "id",
	"date":        "date",
	"posted_at":   "date",
	"description": "description",
	"memo":        "description",
	"amount":      "amount",
	"value":       "amount",
	"type":        "type",
	"category":    "category",
	"account_id":  "account_id",
}

// CSVParser reads header-driven CSV. The date, description and amount
// columns are required; the rest are optional.
type CSVParser struct{}

// Parse implements Parser.
func (CSVParser) Parse(data []byte) ([]domain.ImportRecord, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if canonical, ok := csvColumnAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			columns[canonical] = i
		}
	}
	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var records []domain.ImportRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}

		record, err := csvRecord(columns, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func csvRecord(columns map[string]int, row []string) (domain.ImportRecord, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	postedAt, err := domain.ParseDate(field("date"))
	if err != nil {
		return domain.ImportRecord{}, fmt.Errorf("invalid date %q", field("date"))
	}

	amount, err := ParseAmount(field("amount"))
	if err != nil {
		return domain.ImportRecord{}, err
	}

	t := domain.TransactionType(strings.ToLower(field("type")))
	if t != "" && !t.IsValid() {
		return domain.ImportRecord{}, fmt.Errorf("unknown type %q", field("type"))
	}

	return domain.ImportRecord{
		ExternalID:  field("id"),
		PostedAt:    postedAt,
		Description: field("description"),
		Amount:      applyType(amount, t),
		Type:        t,
		Category:    field("category"),
		AccountID:   field("account_id"),
	}, nil
}

func sniffDelimiter(data []byte) rune {
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
