// Package actions loads affiliate "Actions" report records from their
// external sources: a JSON report document or a PostgreSQL table.
//
// Records are decoded once and never mutated afterwards. Field values are
// kept as their literal text; interpretation (dates, amounts) belongs to
// the report package.
package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputMissing is returned when no source was supplied at all.
var ErrInputMissing = errors.New("no actions source supplied")

// Record is a single reported action, e.g. a referral conversion.
type Record struct {
	ID        string
	EventDate string
	Payout    string
	Amount    string
	SubjectID string
}

// InputError reports a structurally invalid record collection. It is fatal
// to the run; individual bad field values never produce one.
type InputError struct {
	Source string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	msg := "invalid actions input"
	if e.Source != "" {
		msg += " from " + e.Source
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// Source supplies a freshly loaded record collection.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// Fields names the JSON keys each Record field is read from.
type Fields struct {
	Collection string
	ID         string
	EventDate  string
	Payout     string
	Amount     string
	Subject    string
}

// DefaultFields matches the affiliate network's Actions export.
func DefaultFields() Fields {
	return Fields{
		Collection: "Actions",
		ID:         "Id",
		EventDate:  "EventDate",
		Payout:     "Payout",
		Amount:     "Amount",
		Subject:    "CreatorId",
	}
}

func (f Fields) withDefaults() Fields {
	d := DefaultFields()
	if f.Collection == "" {
		f.Collection = d.Collection
	}
	if f.ID == "" {
		f.ID = d.ID
	}
	if f.EventDate == "" {
		f.EventDate = d.EventDate
	}
	if f.Payout == "" {
		f.Payout = d.Payout
	}
	if f.Amount == "" {
		f.Amount = d.Amount
	}
	if f.Subject == "" {
		f.Subject = d.Subject
	}
	return f
}

// Decode reads a report document using DefaultFields.
func Decode(r io.Reader) ([]Record, error) {
	return DecodeFields(r, DefaultFields())
}

// DecodeFields reads a JSON object whose collection field holds an array of
// action objects. A missing or null collection yields an empty slice. Any
// other shape is an *InputError.
func DecodeFields(r io.Reader, fields Fields) ([]Record, error) {
	fields = fields.withDefaults()

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc map[string]json.RawMessage
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InputError{Reason: "empty document"}
		}
		return nil, &InputError{Reason: "document is not a JSON object", Err: err}
	}
	if doc == nil {
		return nil, &InputError{Reason: "document is null"}
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &InputError{Reason: "trailing data after document", Err: err}
	}

	raw, ok := doc[fields.Collection]
	if !ok || isNull(raw) {
		return []Record{}, nil
	}

	var items []json.RawMessage
	if err := unmarshalNumber(raw, &items); err != nil {
		return nil, &InputError{Reason: fmt.Sprintf("%q is not a list", fields.Collection), Err: err}
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		var obj map[string]any
		if err := unmarshalNumber(item, &obj); err != nil || obj == nil {
			return nil, &InputError{Reason: fmt.Sprintf("%s[%d] is not an object", fields.Collection, i), Err: err}
		}
		records = append(records, Record{
			ID:        text(obj[fields.ID]),
			EventDate: text(obj[fields.EventDate]),
			Payout:    text(obj[fields.Payout]),
			Amount:    text(obj[fields.Amount]),
			SubjectID: text(obj[fields.Subject]),
		})
	}
	return records, nil
}

func unmarshalNumber(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// text renders a scalar JSON value as its literal text. Nested values are
// re-encoded so they stay visible in the sample listing.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
