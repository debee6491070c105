package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// CoerceBool maps the boolean-ish values the legacy schema stored (real
// booleans, numbers, assorted string forms) onto a real boolean. Anything
// not recognized as truthy is false.
func CoerceBool(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case []byte:
		return truthyString(string(val))
	case string:
		return truthyString(val)
	default:
		return truthyString(fmt.Sprintf("%v", val))
	}
}

func truthyString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

var (
	priceToken   = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	arabicDigits = strings.NewReplacer(
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
		"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	)
)

// SanitizePrice strips currency noise from user-editable price input,
// keeping only the first numeric token. Arabic-Indic digits are mapped to
// ASCII first. Returns "0" when nothing numeric remains.
func SanitizePrice(raw string) string {
	cleaned := arabicDigits.Replace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if token := priceToken.FindString(cleaned); token != "" {
		return token
	}
	return "0"
}

// ResolveCategoryLabel resolves a course's category against the known
// category list: exact id match first, then case-insensitive text in either
// language, else the general sentinel.
func ResolveCategoryLabel(categories []Category, id *int64, text string) string {
	if id != nil {
		for _, c := range categories {
			if c.ID == *id {
				return c.Name
			}
		}
	}
	if text != "" {
		for _, c := range categories {
			if c.MatchesText(text) {
				return c.Name
			}
		}
	}
	return GeneralCategory
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FlexibleDoc holds a stored free-text field that may contain JSON. It
// scans from whatever the tier returns and renders as a JSON document when
// the content parses, or as a plain string otherwise. Parse failures never
// propagate.
type FlexibleDoc struct {
	raw string
}

// NewFlexibleDoc wraps raw text.
func NewFlexibleDoc(raw string) FlexibleDoc {
	return FlexibleDoc{raw: raw}
}

// FlexibleDocFrom serializes v into a FlexibleDoc.
func FlexibleDocFrom(v interface{}) FlexibleDoc {
	data, err := json.Marshal(v)
	if err != nil {
		return FlexibleDoc{}
	}
	return FlexibleDoc{raw: string(data)}
}

// String returns the stored text as-is.
func (d FlexibleDoc) String() string { return d.raw }

// IsEmpty reports whether anything is stored.
func (d FlexibleDoc) IsEmpty() bool { return strings.TrimSpace(d.raw) == "" }

// Decode unmarshals the stored JSON into out, or reports false when the
// content is not JSON.
func (d FlexibleDoc) Decode(out interface{}) bool {
	if d.IsEmpty() {
		return false
	}
	return json.Unmarshal([]byte(d.raw), out) == nil
}

// Scan implements sql.Scanner.
func (d *FlexibleDoc) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		d.raw = ""
	case string:
		d.raw = v
	case []byte:
		d.raw = string(v)
	default:
		d.raw = fmt.Sprintf("%v", v)
	}
	return nil
}

// Value implements driver.Valuer.
func (d FlexibleDoc) Value() (driver.Value, error) {
	return d.raw, nil
}

// MarshalJSON renders valid JSON content verbatim and everything else as a
// JSON string.
func (d FlexibleDoc) MarshalJSON() ([]byte, error) {
	trimmed := strings.TrimSpace(d.raw)
	if trimmed == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}
	return json.Marshal(d.raw)
}

// UnmarshalJSON keeps the document's raw form: JSON strings are unquoted to
// their inner text, any other JSON value is stored verbatim.
func (d *FlexibleDoc) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.raw = s
		return nil
	}
	if string(data) == "null" {
		d.raw = ""
		return nil
	}
	d.raw = string(data)
	return nil
}
