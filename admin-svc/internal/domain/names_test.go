package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToForm(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		wantEN any
		wantAR any
	}{
		{
			name:   "nested name",
			record: map[string]any{"name": map[string]any{"en": "Salads", "ar": "سلطات"}, "order": 1.0},
			wantEN: "Salads",
			wantAR: "سلطات",
		},
		{
			name:   "typed name",
			record: map[string]any{"name": LocalizedName{EN: "Soup", AR: "شوربة"}},
			wantEN: "Soup",
			wantAR: "شوربة",
		},
		{
			name:   "missing name",
			record: map[string]any{"order": 2.0},
		},
		{
			name:   "malformed name",
			record: map[string]any{"name": "plain"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			form := ToForm(testCase.record)

			assert.Equal(t, testCase.wantEN, form[FieldNameEN])
			assert.Equal(t, testCase.wantAR, form[FieldNameAR])
			for k, v := range testCase.record {
				assert.Equal(t, v, form[k])
			}
		})
	}
}

func TestToWireDiscardsStaleName(t *testing.T) {
	values := map[string]any{
		"nameEN": "Fresh",
		"nameAR": "طازج",
		"name":   map[string]any{"en": "Stale", "ar": "قديم"},
		"order":  3,
	}

	wire := ToWire(values)

	assert.Equal(t, map[string]any{"en": "Fresh", "ar": "طازج"}, wire["name"])
	assert.Equal(t, 3, wire["order"])
	assert.NotContains(t, wire, "nameEN")
	assert.NotContains(t, wire, "nameAR")
	assert.Equal(t, "Stale", values["name"].(map[string]any)["en"], "input must not be mutated")
}

func TestNameRoundTrip(t *testing.T) {
	inputs := []map[string]any{
		{"nameEN": "Apple Pie", "nameAR": "فطيرة التفاح", "price": 1.5},
		{"nameEN": "", "nameAR": ""},
		{"nameEN": nil, "nameAR": "x"},
	}

	for _, x := range inputs {
		back := ToForm(ToWire(x))
		assert.Equal(t, x["nameEN"], back["nameEN"])
		assert.Equal(t, x["nameAR"], back["nameAR"])
	}
}

func TestCategoryRefDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    CategoryRef
		wantErr bool
	}{
		{name: "bare id", payload: `"c1"`, want: CategoryRef{ID: "c1"}},
		{name: "populated mongo id", payload: `{"_id":"c2","name":{"en":"Drinks","ar":"مشروبات"}}`, want: CategoryRef{ID: "c2", Name: LocalizedName{EN: "Drinks", AR: "مشروبات"}}},
		{name: "populated id", payload: `{"id":"c3"}`, want: CategoryRef{ID: "c3"}},
		{name: "null", payload: `null`, want: CategoryRef{}},
		{name: "number", payload: `12`, wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			var ref CategoryRef
			err := json.Unmarshal([]byte(testCase.payload), &ref)
			if testCase.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, ref)
		})
	}
}

func TestMealDecodeAndEncode(t *testing.T) {
	payload := `{"_id":"m1","name":{"en":"Burger","ar":"برغر"},"category":{"_id":"c1","name":{"en":"Mains"}},"price":2.5,"sizes":[]}`

	var meal Meal
	require.NoError(t, json.Unmarshal([]byte(payload), &meal))

	assert.Equal(t, "m1", meal.ID)
	assert.Equal(t, "c1", meal.Category.ID)
	assert.Equal(t, "Mains", meal.SortValue("category"))
	assert.Equal(t, 2.5, meal.SortValue("price"))

	encoded, err := json.Marshal(meal)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"category":"c1"`)
}

func TestCategoryIDFromRaw(t *testing.T) {
	assert.Equal(t, "c1", CategoryID("c1"))
	assert.Equal(t, "c2", CategoryID(map[string]any{"_id": "c2"}))
	assert.Equal(t, "c3", CategoryID(map[string]any{"id": "c3"}))
	assert.Nil(t, CategoryID(nil))
}

func TestAvailableSizes(t *testing.T) {
	meal := Meal{IsSizeRequired: true, Sizes: []Size{{ID: "small", IsAvailable: true}, {ID: "large"}}}
	assert.Len(t, meal.AvailableSizes(), 1)

	meal.IsSizeRequired = false
	assert.Empty(t, meal.AvailableSizes())
}
