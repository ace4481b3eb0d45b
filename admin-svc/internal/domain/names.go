package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

const (
	FieldName   = "name"
	FieldNameEN = "nameEN"
	FieldNameAR = "nameAR"
)

type LocalizedName struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

func JoinName(en, ar string) LocalizedName {
	return LocalizedName{EN: en, AR: ar}
}

func (n LocalizedName) Split() (en, ar string) {
	return n.EN, n.AR
}

// ToForm flattens record.name into nameEN/nameAR. A missing or malformed name
// yields nil values; the rest of the record is copied through untouched.
func ToForm(record map[string]any) map[string]any {
	out := make(map[string]any, len(record)+2)
	for k, v := range record {
		out[k] = v
	}

	var en, ar any
	switch name := record[FieldName].(type) {
	case map[string]any:
		en, ar = name["en"], name["ar"]
	case LocalizedName:
		en, ar = name.EN, name.AR
	case *LocalizedName:
		if name != nil {
			en, ar = name.EN, name.AR
		}
	}
	out[FieldNameEN] = en
	out[FieldNameAR] = ar
	return out
}

// ToWire rebuilds the nested name from the flat form fields. Any name already
// present in values is discarded.
func ToWire(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch k {
		case FieldName, FieldNameEN, FieldNameAR:
			continue
		}
		out[k] = v
	}
	out[FieldName] = map[string]any{
		"en": values[FieldNameEN],
		"ar": values[FieldNameAR],
	}
	return out
}

// CategoryRef is a meal's category. The backend returns it populated
// ({_id, name}) on reads and expects the bare id on writes.
type CategoryRef struct {
	ID   string
	Name LocalizedName
}

func (c CategoryRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ID)
}

func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = CategoryRef{}
		return nil
	}

	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = CategoryRef{ID: id}
		return nil
	case '{':
		var obj struct {
			MongoID string        `json:"_id"`
			ID      string        `json:"id"`
			Name    LocalizedName `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		c.ID = obj.MongoID
		if c.ID == "" {
			c.ID = obj.ID
		}
		c.Name = obj.Name
		return nil
	}
	return errors.New("category: expected id string or object")
}

// CategoryID extracts the id of a raw decoded category value, which is either
// the id itself or a populated category object.
func CategoryID(v any) any {
	switch c := v.(type) {
	case map[string]any:
		if id, ok := c["_id"]; ok && id != nil {
			return id
		}
		return c["id"]
	default:
		return v
	}
}
