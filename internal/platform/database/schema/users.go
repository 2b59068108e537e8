package schema

// UserTable represents the 'users' table
type UserTable struct {
	Table        string
	ID           string
	Name         string
	Phone        string
	Email        string
	PasswordHash string
	Avatar       string
	CreatedAt    string
	UpdatedAt    string
}

// User is the schema definition for users
var User = UserTable{
	Table:        "users",
	ID:           "id",
	Name:         "name",
	Phone:        "phone",
	Email:        "email",
	PasswordHash: "password_hash",
	Avatar:       "avatar",
	CreatedAt:    "created_at",
	UpdatedAt:    "updated_at",
}

// Columns returns all standard column names
func (t UserTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Phone, t.Email, t.PasswordHash, t.Avatar, t.CreatedAt, t.UpdatedAt,
	}
}
