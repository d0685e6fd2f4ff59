package models

import "time"

// Role is the access level of a user
type Role string

// Role constants
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultProfilePicture is assigned to users that did not provide a picture on registration
const DefaultProfilePicture = "https://images.pexels.com/photos/1130626/pexels-photo-1130626.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1"

// User represents a user in the system
type User struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // Never serialize password hash
	Posts          int       `json:"posts"`
	Role           Role      `json:"role"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// LoginRequest represents a login request for both users and admins
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// UserDetails is the login projection of a user
type UserDetails struct {
	ID             string `json:"id"`
	Phone          string `json:"phone"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
}

// AuthResult is returned by the authentication flows
type AuthResult struct {
	User  *User
	Token string
}

// ProfileResponse is the public profile of a user, without role
type ProfileResponse struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Posts          int       `json:"posts"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	FullName        string `json:"fullName,omitempty"`
	Email           string `json:"email,omitempty"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ToDetails converts a user to its login projection
func (u *User) ToDetails() UserDetails {
	return UserDetails{
		ID:             u.ID,
		Phone:          u.Phone,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}
}

// ToProfile converts a user to its public profile
func (u *User) ToProfile() *ProfileResponse {
	return &ProfileResponse{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Phone:          u.Phone,
		Email:          u.Email,
		Posts:          u.Posts,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
