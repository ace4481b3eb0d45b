package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindSwitch Kind = "switch"
	KindSelect Kind = "select"
)

const (
	MsgRequired = "Required"
	MsgTooShort = "Too Short!"
	MsgTooLong  = "Too Long!"
	MsgInvalid  = "Invalid"
)

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"type"`
	Initial any      `json:"initialValue"`
	Options []Option `json:"options,omitempty"`

	// Rules uses validator tag syntax, e.g. "required,min=2,max=50". Number
	// fields only understand "required".
	Rules string `json:"-"`

	// FromRecord normalises the value read from a fetched record.
	FromRecord func(v any) any `json:"-"`
}

// CollectionSpec describes a nested, id-keyed sequence edited next to the
// flat fields (meal sizes, nutrition facts, addons).
type CollectionSpec struct {
	Name     string `json:"name"`
	Defaults []Item `json:"-"`
}

type Schema struct {
	Resource    string           `json:"resource"`
	Model       string           `json:"model"`
	Fields      []Field          `json:"fields"`
	Collections []CollectionSpec `json:"collections,omitempty"`

	// Decode fills values kept elsewhere in the record, after the per-field
	// FromRecord hooks ran. Encode reshapes the outgoing payload.
	Decode func(record map[string]any, values Values) `json:"-"`
	Encode func(wire map[string]any)                  `json:"-"`
}

func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s *Schema) Defaults() Values {
	values := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		values[f.Name] = f.Initial
	}
	return values
}

var validate = validator.New()

// Validate returns one message per failing field. An empty map means the
// values are valid.
func (s *Schema) Validate(values Values) map[string]string {
	errs := make(map[string]string)
	for _, f := range s.Fields {
		if f.Rules == "" {
			continue
		}
		if msg := f.check(values[f.Name]); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

func (f Field) check(v any) string {
	if f.Kind == KindNumber {
		if _, ok := ToNumber(v); !ok && strings.Contains(f.Rules, "required") {
			return MsgRequired
		}
		return ""
	}

	s, _ := v.(string)
	if v != nil {
		if _, isString := v.(string); !isString {
			s = fmt.Sprint(v)
		}
	}

	err := validate.Var(s, f.Rules)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return MsgInvalid
	}
	switch verrs[0].Tag() {
	case "required":
		return MsgRequired
	case "min":
		return MsgTooShort
	case "max":
		return MsgTooLong
	}
	return MsgInvalid
}

// ToNumber coerces a form value to a number. Empty strings and nil are not
// numbers.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		n = strings.TrimSpace(n)
		if n == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
