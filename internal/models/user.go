package models

// User represents a user in the system
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}
