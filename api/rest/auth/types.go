package auth

import "codeberg.org/thecookflow/server/cookflow/users"

type AuthResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

type UserResponse struct {
	User *users.User `json:"user"`
}
