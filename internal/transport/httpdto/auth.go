package httpdto

// RegisterRequest is used for POST /auth/register
type RegisterRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Phone       string `json:"phone,omitempty"`
	ContactInfo string `json:"contact_info,omitempty"`
	Role        string `json:"role,omitempty" binding:"omitempty,oneof=user verified_contact"`
}

// LoginRequest is used for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is used for POST /auth/refresh. The token may also come from the Authorization header.
type RefreshRequest struct {
	Token string `json:"token"`
}
