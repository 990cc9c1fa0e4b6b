package domain

// Profile is the account profile as served by the upstream API. PhoneNumber
// is a pointer because the upstream distinguishes null from empty.
type Profile struct {
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Role        string  `json:"role,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// ProfileUpdate carries the fields a customer may change. Nil pointers mean
// "leave unchanged" and are omitted from the upstream request.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}
