package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/aevon-lab/metric-oracle/internal/core/series"
	"github.com/shopspring/decimal"
)

// Data and answer files are '|' delimited; commas belong to the fields.
const fieldDelimiter = '|'

// Record is one line of a data file: kind|[v1,v2,...]|name,description,{k:v}
type Record struct {
	Kind   oracle.Kind
	Values []decimal.Decimal
	Key    series.Key
}

// RecordFromSeries adapts a fixture series into a data record.
func RecordFromSeries(s series.Series) Record {
	return Record{Kind: s.Kind, Values: s.Values, Key: s.Key}
}

// Fields renders the record as the three data file columns.
func (r Record) Fields() []string {
	return []string{string(r.Kind), formatList("[", r.Values, "]"), r.Key.String()}
}

// ParseRecord parses the three data file columns.
func ParseRecord(fields []string) (Record, error) {
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("data record must have 3 fields, got %d", len(fields))
	}
	kind, err := oracle.ParseKind(fields[0])
	if err != nil {
		return Record{}, err
	}
	values, err := parseValues(fields[1])
	if err != nil {
		return Record{}, err
	}
	key, err := series.ParseKey(fields[2])
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: kind, Values: values, Key: key}, nil
}

func parseValues(s string) ([]decimal.Decimal, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("values %q must be wrapped in brackets", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []decimal.Decimal{}, nil
	}

	parts := strings.Split(body, ",")
	values := make([]decimal.Decimal, 0, len(parts))
	for _, p := range parts {
		v, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", p, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func formatList(open string, values []decimal.Decimal, close string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return wrap(open, parts, close)
}

func wrap(open string, parts []string, close string) string {
	return open + strings.Join(parts, ",") + close
}

// ReadRecords reads every data record from r. Parse errors carry the line number.
func ReadRecords(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = fieldDelimiter
	reader.FieldsPerRecord = 3

	var records []Record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read data record: %w", err)
		}
		rec, err := ParseRecord(fields)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("data line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteRecords writes data records, one per line.
func WriteRecords(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	writer.Comma = fieldDelimiter
	for _, rec := range records {
		if err := writer.Write(rec.Fields()); err != nil {
			return fmt.Errorf("write data record %s: %w", rec.Key, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Answer pairs a series with the summary the pipeline under test must report.
type Answer struct {
	Key     series.Key
	Summary oracle.Summary
}

// Fields renders the answer columns for the summary's kind:
//
//	sum, lval: props|kind|value
//	mmsc:      props|kind|value|min|max|count
//	dist:      props|kind|value|min|max|count|{q0,q1,...}
//	hist:      props|kind|value|count|{b0,b1,...,bN}
func (a Answer) Fields() []string {
	s := a.Summary
	fields := []string{a.Key.String(), string(s.Kind), s.Value.String()}

	switch s.Kind {
	case oracle.KindMMSC:
		fields = append(fields, s.Min.String(), s.Max.String(), strconv.FormatInt(s.Count, 10))
	case oracle.KindDist:
		quantiles := make([]decimal.Decimal, len(s.Quantiles))
		for i, q := range s.Quantiles {
			quantiles[i] = q.Value
		}
		fields = append(fields, s.Min.String(), s.Max.String(), strconv.FormatInt(s.Count, 10), formatList("{", quantiles, "}"))
	case oracle.KindHist:
		counts := make([]string, len(s.Buckets))
		for i, b := range s.Buckets {
			counts[i] = strconv.FormatInt(b.Count, 10)
		}
		fields = append(fields, strconv.FormatInt(s.Count, 10), wrap("{", counts, "}"))
	}
	return fields
}

// Line renders the answer exactly as it appears in an answers file, without newline.
func (a Answer) Line() string {
	return strings.Join(a.Fields(), string(fieldDelimiter))
}

// WriteAnswers writes answers, one per line, in the given order.
func WriteAnswers(w io.Writer, answers []Answer) error {
	for _, a := range answers {
		if _, err := io.WriteString(w, a.Line()+"\n"); err != nil {
			return fmt.Errorf("write answer %s: %w", a.Key, err)
		}
	}
	return nil
}
