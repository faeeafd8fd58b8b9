package domain

// Token is the single bearer credential a user holds.
// Value is rotated in place on every login.
type Token struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Value  string `json:"value"`
}
