package service

import (
	"overcooked-admin/admin-svc/internal/domain"
	"overcooked-admin/admin-svc/internal/form"
)

const (
	fieldDescription   = "description"
	fieldDescriptionEN = "descriptionEN"
	fieldDescriptionAR = "descriptionAR"

	nameRules        = "required,min=2,max=50"
	descriptionRules = "omitempty,min=2,max=150"
)

func CategorySchema() *form.Schema {
	return &form.Schema{
		Resource: domain.ResourceCategories,
		Model:    "Category",
		Fields: []form.Field{
			{Name: domain.FieldNameEN, Label: "Name", Kind: form.KindText, Initial: "", Rules: nameRules},
			{Name: domain.FieldNameAR, Label: "الاسم", Kind: form.KindText, Initial: "", Rules: nameRules},
			{Name: "order", Label: "Order", Kind: form.KindNumber, Initial: 0, Rules: "required"},
			{Name: "isAvailable", Label: "Available", Kind: form.KindSwitch, Initial: false},
		},
	}
}

// MealSchema builds the meal form. categories are the options of the
// category select.
func MealSchema(categories []form.Option) *form.Schema {
	return &form.Schema{
		Resource: domain.ResourceMeals,
		Model:    "Meal",
		Fields: []form.Field{
			{Name: domain.FieldNameEN, Label: "Name", Kind: form.KindText, Initial: "", Rules: nameRules},
			{Name: domain.FieldNameAR, Label: "الاسم", Kind: form.KindText, Initial: "", Rules: nameRules},
			{
				Name: "category", Label: "Category", Kind: form.KindSelect, Initial: "",
				Options: categories, Rules: "required", FromRecord: domain.CategoryID,
			},
			{Name: "order", Label: "Order", Kind: form.KindNumber, Initial: 0, Rules: "required"},
			{Name: "isAvailable", Label: "Available", Kind: form.KindSwitch, Initial: false},
			{Name: fieldDescriptionEN, Label: "Description", Kind: form.KindText, Initial: "", Rules: descriptionRules},
			{Name: fieldDescriptionAR, Label: "الوصف", Kind: form.KindText, Initial: "", Rules: descriptionRules},
			{Name: "price", Label: "Price (KD)", Kind: form.KindNumber, Initial: 0, Rules: "required"},
			{Name: "isSubscription", Label: "Available in Subscription", Kind: form.KindSwitch, Initial: false},
			{Name: "isShuwaikh", Label: "Available in Shuwaikh", Kind: form.KindSwitch, Initial: false},
			{Name: "isFitness", Label: "Available in Fitness", Kind: form.KindSwitch, Initial: false},
			{Name: "isSizeRequired", Label: "Size Required", Kind: form.KindSwitch, Initial: true, FromRecord: defaultTrue},
		},
		Collections: []form.CollectionSpec{
			{Name: "sizes", Defaults: defaultSizes()},
			{Name: "nutritionFacts", Defaults: defaultNutritionFacts()},
			{Name: "addons"},
		},
		Decode: decodeDescription,
		Encode: encodeDescription,
	}
}

func defaultTrue(v any) any {
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func defaultSizes() []form.Item {
	return []form.Item{
		{"id": "small", "name": map[string]any{"en": "small", "ar": "صغير"}, "isAvailable": true, "price": 0, "isDefault": true},
		{"id": "large", "name": map[string]any{"en": "large", "ar": "كبير"}, "isAvailable": true, "price": 0, "isDefault": false},
	}
}

func defaultNutritionFacts() []form.Item {
	fact := func(id, en, ar string) form.Item {
		return form.Item{"id": id, "name": map[string]any{"en": en, "ar": ar}, "value": 0}
	}
	return []form.Item{
		fact("calories", "calories", "سعرات حراريه"),
		fact("carbs", "carbs", "الكرب"),
		fact("protein", "protein", "بروتين"),
		fact("fat", "fat", "الدهون"),
		fact("saturatedFat", "saturated fat", "الدهون المشبعة"),
	}
}

func decodeDescription(record map[string]any, values form.Values) {
	values[fieldDescriptionEN] = ""
	values[fieldDescriptionAR] = ""
	desc, ok := record[fieldDescription].(map[string]any)
	if !ok {
		return
	}
	if en, ok := desc["en"].(string); ok {
		values[fieldDescriptionEN] = en
	}
	if ar, ok := desc["ar"].(string); ok {
		values[fieldDescriptionAR] = ar
	}
}

func encodeDescription(wire map[string]any) {
	wire[fieldDescription] = map[string]any{
		"en": wire[fieldDescriptionEN],
		"ar": wire[fieldDescriptionAR],
	}
	delete(wire, fieldDescriptionEN)
	delete(wire, fieldDescriptionAR)
}
