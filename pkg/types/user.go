package types

import "time"

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleInvestor  Role = "investor"
)

// Valid reports whether the role is one of the closed set. An empty role is
// not valid; callers wanting the default should pass RoleApplicant explicitly.
func (r Role) Valid() bool {
	return r == RoleApplicant || r == RoleInvestor
}

type User struct {
	ID          string    `db:"id" json:"id"`
	Role        Role      `db:"role" json:"role"`
	Email       *string   `db:"email" json:"email"`
	DisplayName *string   `db:"display_name" json:"displayName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Identity is the authenticated-caller snapshot carried through request
// context and denormalized onto investment records.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
