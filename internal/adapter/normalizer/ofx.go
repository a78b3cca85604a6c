package normalizer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/iho/cardledger/internal/domain"
)

// OFXParser reads the <STMTTRN> blocks of an OFX statement. Both the SGML
// (unclosed leaf tags) and the XML flavours are accepted. Tags are matched
// upper case.
type OFXParser struct{}

// Parse implements Parser.
func (OFXParser) Parse(data []byte) ([]domain.ImportRecord, error) {
	var records []domain.ImportRecord
	for n := 1; ; n++ {
		start := bytes.Index(data, []byte("<STMTTRN>"))
		if start < 0 {
			break
		}
		end := bytes.Index(data[start:], []byte("</STMTTRN>"))
		if end < 0 {
			return nil, fmt.Errorf("transaction %d: missing </STMTTRN>", n)
		}

		block := string(data[start+len("<STMTTRN>") : start+end])
		record, err := ofxRecord(block)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", n, err)
		}
		records = append(records, record)

		data = data[start+end+len("</STMTTRN>"):]
	}

	return records, nil
}

func ofxRecord(block string) (domain.ImportRecord, error) {
	fields := ofxFields(block)

	postedAt, err := parseOFXDate(fields["DTPOSTED"])
	if err != nil {
		return domain.ImportRecord{}, err
	}

	amount, err := ParseAmount(fields["TRNAMT"])
	if err != nil {
		return domain.ImportRecord{}, err
	}

	description := fields["NAME"]
	if memo := fields["MEMO"]; memo != "" {
		if description == "" {
			description = memo
		} else if !strings.EqualFold(memo, description) {
			description += " " + memo
		}
	}

	return domain.ImportRecord{
		ExternalID:  fields["FITID"],
		PostedAt:    postedAt,
		Description: description,
		Amount:      amount,
		Type:        ofxType(fields["TRNTYPE"], amount),
	}, nil
}

// ofxFields collects leaf tags. A value runs until the next '<'.
func ofxFields(block string) map[string]string {
	fields := make(map[string]string)

	for _, part := range strings.Split(block, "<")[1:] {
		tag, value, ok := strings.Cut(part, ">")
		if !ok || strings.HasPrefix(tag, "/") {
			continue
		}
		fields[strings.ToUpper(strings.TrimSpace(tag))] = strings.TrimSpace(value)
	}

	return fields
}

// parseOFXDate reads YYYYMMDD and ignores any time and zone suffix.
func parseOFXDate(s string) (time.Time, error) {
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("invalid DTPOSTED %q", s)
	}
	t, err := time.Parse("20060102", s[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid DTPOSTED %q", s)
	}
	return t, nil
}

func ofxType(trnType string, amount int64) domain.TransactionType {
	if strings.EqualFold(trnType, "PAYMENT") && amount > 0 {
		return domain.TransactionPayment
	}
	if amount < 0 {
		return domain.TransactionExpense
	}
	return domain.TransactionIncome
}
