package schema

// CategoryTable represents the 'categories' table
type CategoryTable struct {
	Table       string
	ID          string
	Name        string
	EnglishName string
	Slug        string
	Description string
	Icon        string
	Color       string
	IsActive    string
	CreatedAt   string
	UpdatedAt   string
}

// Category is the schema definition for categories
var Category = CategoryTable{
	Table:       "categories",
	ID:          "id",
	Name:        "name",
	EnglishName: "english_name",
	Slug:        "slug",
	Description: "description",
	Icon:        "icon",
	Color:       "color",
	IsActive:    "is_active",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
}

// Columns returns all standard column names
func (t CategoryTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.EnglishName, t.Slug, t.Description, t.Icon, t.Color,
		t.IsActive, t.CreatedAt, t.UpdatedAt,
	}
}
