package domain

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	ResourceCategories = "categories"
	ResourceMeals      = "meals"
	ResourceUsers      = "users"
	ResourceProjects   = "projects"
)

// Resources lists every backend resource the dashboard manages.
var Resources = []string{ResourceCategories, ResourceMeals, ResourceUsers, ResourceProjects}

type Category struct {
	ID          string        `json:"id"`
	Name        LocalizedName `json:"name"`
	ImageURL    string        `json:"imageURL,omitempty"`
	Order       int           `json:"order"`
	IsAvailable bool          `json:"isAvailable"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	type alias Category
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Category(raw.alias)
	if c.ID == "" {
		c.ID = raw.MongoID
	}
	return nil
}

func (c Category) SortValue(key string) any {
	switch key {
	case "name", "nameEN":
		return c.Name.EN
	case "nameAR":
		return c.Name.AR
	case "order":
		return c.Order
	case "isAvailable":
		return c.IsAvailable
	case "imageURL":
		return c.ImageURL
	}
	return nil
}

func (c Category) SearchText() []string {
	return []string{c.Name.EN, c.Name.AR}
}

type Size struct {
	ID          string        `json:"id"`
	Name        LocalizedName `json:"name"`
	IsAvailable bool          `json:"isAvailable"`
	Price       float64       `json:"price"`
	IsDefault   bool          `json:"isDefault"`
}

type NutritionFact struct {
	ID    string        `json:"id"`
	Name  LocalizedName `json:"name"`
	Value float64       `json:"value"`
}

type Addon struct {
	ID          string        `json:"id"`
	Name        LocalizedName `json:"name"`
	Price       float64       `json:"price"`
	IsAvailable bool          `json:"isAvailable"`
}

type Meal struct {
	ID             string          `json:"id"`
	Name           LocalizedName   `json:"name"`
	Description    LocalizedName   `json:"description"`
	Category       CategoryRef     `json:"category"`
	Price          float64         `json:"price"`
	Currency       string          `json:"currency,omitempty"`
	Order          int             `json:"order"`
	IsAvailable    bool            `json:"isAvailable"`
	IsSubscription bool            `json:"isSubscription"`
	IsShuwaikh     bool            `json:"isShuwaikh"`
	IsFitness      bool            `json:"isFitness"`
	IsSizeRequired bool            `json:"isSizeRequired"`
	Sizes          []Size          `json:"sizes"`
	NutritionFacts []NutritionFact `json:"nutritionFacts"`
	Addons         []Addon         `json:"addons"`
	ImageURL       string          `json:"imageURL,omitempty"`
}

func (m *Meal) UnmarshalJSON(data []byte) error {
	type alias Meal
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Meal(raw.alias)
	if m.ID == "" {
		m.ID = raw.MongoID
	}
	return nil
}

func (m Meal) SortValue(key string) any {
	switch key {
	case "name", "nameEN":
		return m.Name.EN
	case "nameAR":
		return m.Name.AR
	case "category":
		return m.Category.Name.EN
	case "price":
		return m.Price
	case "order":
		return m.Order
	case "isAvailable":
		return m.IsAvailable
	case "imageURL":
		return m.ImageURL
	}
	return nil
}

func (m Meal) SearchText() []string {
	return []string{m.Name.EN, m.Name.AR}
}

// AvailableSizes returns the sizes shown in the meals table.
func (m Meal) AvailableSizes() []Size {
	if !m.IsSizeRequired {
		return nil
	}
	var out []Size
	for _, s := range m.Sizes {
		if s.IsAvailable {
			out = append(out, s)
		}
	}
	return out
}

type User struct {
	ID               string            `json:"id"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Email            string            `json:"email,omitempty"`
	PhoneNumber      string            `json:"phoneNumber"`
	TotalOrdersCount int               `json:"totalOrdersCount"`
	LastOrderDate    int64             `json:"lastOrderDate,omitempty"` // unix seconds
	Subscriptions    []json.RawMessage `json:"subscriptions,omitempty"`
}

func (u User) IsSubscribed() bool { return len(u.Subscriptions) > 0 }

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}

func (u User) SortValue(key string) any {
	switch key {
	case "name":
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	case "firstName":
		return u.FirstName
	case "lastName":
		return u.LastName
	case "email":
		return u.Email
	case "phoneNumber":
		return u.PhoneNumber
	case "totalOrdersCount":
		return u.TotalOrdersCount
	case "lastOrderDate":
		return u.LastOrderDate
	case "subscribed":
		return u.IsSubscribed()
	}
	return nil
}

func (u User) SearchText() []string {
	return []string{u.FirstName, u.LastName}
}

type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	LongDescription string    `json:"longDescription,omitempty"`
	EstimatedCost   float64   `json:"estimatedCost"`
	Currency        string    `json:"currency"`
	Available       float64   `json:"available"`
	CreatedAt       time.Time `json:"createdAt"`
	EndDate         time.Time `json:"endDate"`
	Priority        int       `json:"priority"`
	Manager         string    `json:"manager"`
}

func (p Project) SortValue(key string) any {
	switch key {
	case "name":
		return p.Name
	case "createdAt":
		return p.CreatedAt
	case "endDate":
		return p.EndDate
	case "priority":
		return p.Priority
	case "estimatedCost":
		return p.EstimatedCost
	case "available":
		return p.Available
	case "manager":
		return p.Manager
	}
	return nil
}

func (p Project) SearchText() []string {
	return []string{p.Name, p.Manager}
}

// Identity is the authenticated dashboard operator.
type Identity struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	UID         string `json:"uid"`
	PhotoURL    string `json:"photoURL"`
}

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type AuditEntry struct {
	ID        int       `json:"id"`
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	RecordID  string    `json:"record_id"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

type MutationEvent struct {
	Type      string    `json:"type"`
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	RecordID  string    `json:"record_id"`
	CacheKey  string    `json:"cache_key"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

const EventListMutated = "list_mutated"
