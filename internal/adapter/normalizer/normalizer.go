// Package normalizer turns uploaded statement files into import records.
package normalizer

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// Supported formats.
const (
	FormatCSV = "csv"
	FormatOFX = "ofx"
)

var (
	// ErrUnknownFormat is returned when the format can be neither read from
	// the name nor sniffed from the content.
	ErrUnknownFormat = errors.New("unknown file format")
	// ErrEmptyFile is returned for files without any record.
	ErrEmptyFile = errors.New("file contains no records")
)

// Parser converts one file format.
type Parser interface {
	Parse(data []byte) ([]domain.ImportRecord, error)
}

// Registry implements usecase.Normalizer over a set of parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a Registry with the CSV and OFX parsers.
func NewRegistry() *Registry {
	return &Registry{
		parsers: map[string]Parser{
			FormatCSV: CSVParser{},
			FormatOFX: OFXParser{},
		},
	}
}

// Normalize parses data. An empty format is taken from the name's extension,
// then from the content.
func (r *Registry) Normalize(format, name string, data []byte) ([]domain.ImportRecord, error) {
	if format == "" {
		format = DetectFormat(name, data)
	}

	p, ok := r.parsers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	records, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	return records, nil
}

// DetectFormat guesses the format of a file.
func DetectFormat(name string, data []byte) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "csv", "txt":
		return FormatCSV
	case "ofx", "qfx":
		return FormatOFX
	}

	head := bytes.ToUpper(data[:min(len(data), 512)])
	if bytes.Contains(head, []byte("OFXHEADER")) || bytes.Contains(head, []byte("<OFX>")) {
		return FormatOFX
	}
	if bytes.ContainsAny(head, ",;") {
		return FormatCSV
	}

	return ""
}

// ParseAmount converts a decimal string into signed minor units. Both "." and
// "," are accepted as the decimal separator when the other is absent.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	minor := d.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}

	return minor.IntPart(), nil
}

// applyType makes the amount's sign agree with an explicit type.
func applyType(amount int64, t domain.TransactionType) int64 {
	if !t.IsValid() {
		return amount
	}
	if amount < 0 {
		amount = -amount
	}
	return t.SignedAmount(amount)
}
