// internal/domain/auth/dto.go
package auth

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=200"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	FullName string `json:"full_name" binding:"max=255"`
	Role     string `json:"role" binding:"required,oneof=admin employee"`
}

// CreateUserResponse carries the generated temporary password exactly once.
type CreateUserResponse struct {
	User         PublicUser `json:"user"`
	TempPassword string     `json:"temp_password"`
}

type UpdateUserRequest struct {
	Email         *string `json:"email" binding:"omitempty,email,max=255"`
	FullName      *string `json:"full_name" binding:"omitempty,max=255"`
	Role          *string `json:"role" binding:"omitempty,oneof=admin employee"`
	ResetPassword bool    `json:"reset_password"`
}
