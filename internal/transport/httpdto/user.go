package httpdto

// UpdateProfileRequest is used for PUT /users/me
type UpdateProfileRequest struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone          *string `json:"phone,omitempty"`
	ContactInfo    *string `json:"contact_info,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}
