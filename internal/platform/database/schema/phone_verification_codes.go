package schema

// PhoneVerificationCodeTable represents the 'phone_verification_codes' table
type PhoneVerificationCodeTable struct {
	Table     string
	ID        string
	Phone     string
	Code      string
	CreatedAt string
	ExpiresAt string
	IsUsed    string
	Attempts  string
}

// PhoneVerificationCode is the schema definition for phone_verification_codes
var PhoneVerificationCode = PhoneVerificationCodeTable{
	Table:     "phone_verification_codes",
	ID:        "id",
	Phone:     "phone",
	Code:      "code",
	CreatedAt: "created_at",
	ExpiresAt: "expires_at",
	IsUsed:    "is_used",
	Attempts:  "attempts",
}

// Columns returns all standard column names
func (t PhoneVerificationCodeTable) Columns() []string {
	return []string{t.ID, t.Phone, t.Code, t.CreatedAt, t.ExpiresAt, t.IsUsed, t.Attempts}
}
