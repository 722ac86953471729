package model

// Session identifies the signed-in user. It is passed explicitly to every
// operation that reads or writes user-owned rows.
type Session struct {
	UserID string
	Email  string
	Name   string
}

// Profile is the per-user record created on first sign-in.
type Profile struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	FullName  string `json:"full_name" db:"full_name"`
	AvatarURL string `json:"avatar_url" db:"avatar_url"`
}
