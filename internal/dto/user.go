package dto

import (
	"time"

	"github.com/taskboard/taskboard-api/internal/models"
)

// UserDTO represents a user in API responses. The password hash never
// leaves the server.
type UserDTO struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AuthDTO carries a user together with a freshly issued token.
type AuthDTO struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// UserListDTO is the admin listing payload.
type UserListDTO struct {
	Users      []UserDTO  `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUserListDTO converts a page of users to UserListDTO.
func ToUserListDTO(users []models.User, page, limit int, total int64) UserListDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}

	return UserListDTO{
		Users:      items,
		Pagination: NewPagination(page, limit, total),
	}
}
