package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidRecordID indicates that a record identifier is empty, malformed or exceeds bounds.
	ErrInvalidRecordID = errors.New("records: invalid record id")
	// ErrUnknownDraftField indicates that a draft update referenced a field the form does not carry.
	ErrUnknownDraftField = errors.New("records: unknown draft field")
)

// RecordID identifies a record. The backend issues either string or numeric identifiers,
// and the form it used is kept so the id can be sent back unchanged.
type RecordID struct {
	value   string
	numeric bool
}

// NewRecordID validates raw input and returns a string RecordID.
func NewRecordID(rawInput string) (RecordID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return RecordID{}, fmt.Errorf("%w: empty", ErrInvalidRecordID)
	}
	if len(trimmed) > maxIdentifierLength {
		return RecordID{}, fmt.Errorf("%w: exceeds %d characters", ErrInvalidRecordID, maxIdentifierLength)
	}
	return RecordID{value: trimmed}, nil
}

// ParseRecordID is NewRecordID for untyped input such as URL path segments: integers
// are treated as numeric identifiers.
func ParseRecordID(rawInput string) (RecordID, error) {
	id, err := NewRecordID(rawInput)
	if err != nil {
		return RecordID{}, err
	}
	id.numeric = isInteger(id.value)
	return id, nil
}

// NumericRecordID returns a numeric RecordID.
func NumericRecordID(value int64) RecordID {
	return RecordID{value: fmt.Sprintf("%d", value), numeric: true}
}

// String returns the canonical text of the identifier.
func (id RecordID) String() string {
	return id.value
}

// IsZero reports whether the identifier has not been assigned.
func (id RecordID) IsZero() bool {
	return id.value == ""
}

// Numeric reports whether the backend issued the identifier as a JSON number.
func (id RecordID) Numeric() bool {
	return id.numeric
}

// Equal compares identifiers by canonical text, so "1" and 1 name the same record.
func (id RecordID) Equal(other RecordID) bool {
	return id.value == other.value
}

func (id RecordID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.numeric && json.Valid([]byte(id.value)) {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *RecordID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = RecordID{}
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRecordID, err)
		}
		*id = RecordID{value: strings.TrimSpace(text)}
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecordID, err)
	}
	*id = RecordID{value: number.String(), numeric: true}
	return nil
}

// isInteger accepts integers in JSON number form: no leading zeros except a lone "0".
func isInteger(value string) bool {
	digits := strings.TrimPrefix(value, "-")
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Record is a single collectible as the backend reports it. Fields the dashboard does not
// know about are kept in Extra and written back untouched.
type Record struct {
	ID           RecordID
	Name         string
	Description  string
	ItemContents string
	YearReleased string
	Status       string
	CreatedAt    string
	Extra        map[string]json.RawMessage
}

type recordWire struct {
	ID           RecordID `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	ItemContents string   `json:"itemcontents,omitempty"`
	YearReleased string   `json:"year_released,omitempty"`
	Status       string   `json:"status,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}

var knownRecordFields = []string{"id", "name", "description", "itemcontents", "year_released", "status", "createdAt"}

func (r Record) MarshalJSON() ([]byte, error) {
	wire := recordWire{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		ItemContents: r.ItemContents,
		YearReleased: r.YearReleased,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
	}
	if len(r.Extra) == 0 {
		return json.Marshal(wire)
	}
	encoded, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(r.Extra)+len(knownRecordFields))
	for key, value := range r.Extra {
		merged[key] = value
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &known); err != nil {
		return nil, err
	}
	for key, value := range known {
		merged[key] = value
	}
	return json.Marshal(merged)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var wire recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, key := range knownRecordFields {
		delete(fields, key)
	}
	if len(fields) == 0 {
		fields = nil
	}
	*r = Record{
		ID:           wire.ID,
		Name:         wire.Name,
		Description:  wire.Description,
		ItemContents: wire.ItemContents,
		YearReleased: wire.YearReleased,
		Status:       wire.Status,
		CreatedAt:    wire.CreatedAt,
		Extra:        fields,
	}
	return nil
}

var createdAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// CreatedTime parses CreatedAt. The backend format is not fixed, so a few common layouts are tried.
func (r Record) CreatedTime() (time.Time, bool) {
	value := strings.TrimSpace(r.CreatedAt)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DraftField names an editable field of the creation form.
type DraftField string

const (
	DraftFieldName         DraftField = "name"
	DraftFieldItemContents DraftField = "itemcontents"
	DraftFieldDescription  DraftField = "description"
	DraftFieldYearReleased DraftField = "year_released"
)

// Draft is the unsaved record under construction in the creation form.
type Draft struct {
	Name         string `json:"name"`
	ItemContents string `json:"itemcontents"`
	Description  string `json:"description"`
	YearReleased string `json:"year_released"`
}

// ParseDraftField validates a form field name.
func ParseDraftField(value string) (DraftField, error) {
	switch field := DraftField(strings.ToLower(strings.TrimSpace(value))); field {
	case DraftFieldName, DraftFieldItemContents, DraftFieldDescription, DraftFieldYearReleased:
		return field, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDraftField, value)
	}
}

// With returns a copy of the draft with one field replaced.
func (d Draft) With(field DraftField, value string) (Draft, error) {
	switch field {
	case DraftFieldName:
		d.Name = value
	case DraftFieldItemContents:
		d.ItemContents = value
	case DraftFieldDescription:
		d.Description = value
	case DraftFieldYearReleased:
		d.YearReleased = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownDraftField, field)
	}
	return d, nil
}

// IsEmpty reports whether no field has been filled in.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}
