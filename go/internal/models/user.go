package models

// User represents a registered rider.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
