package schema

// UserCategoryTable represents the 'user_categories' join table
type UserCategoryTable struct {
	Table      string
	UserID     string
	CategoryID string
	CreatedAt  string
}

// UserCategory is the schema definition for executor specializations
var UserCategory = UserCategoryTable{
	Table:      "user_categories",
	UserID:     "user_id",
	CategoryID: "category_id",
	CreatedAt:  "created_at",
}
