package users

import (
	"errors"

	"github.com/mcdev12/racecycles/go/internal/models"
)

// DefaultRosterKey is the store key the roster is persisted under.
const DefaultRosterKey = "racingUsers"

// ErrEmptyName is returned when registering a name that is blank after trimming.
var ErrEmptyName = errors.New("name must not be empty")

// RegisterUserRequest represents the data needed to register a new user
type RegisterUserRequest struct {
	Name string `json:"name"`
}

// DefaultUsers returns the roster used when nothing usable has been persisted.
func DefaultUsers() []models.User {
	return []models.User{
		{ID: "user1", Name: "John Doe"},
		{ID: "user2", Name: "Jane Smith"},
		{ID: "user3", Name: "Mike Johnson"},
	}
}
