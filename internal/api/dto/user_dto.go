package dto

import "time"

// UpdateProfileRequest: payload for profile edits; absent fields are left
// unchanged
type UpdateProfileRequest struct {
	FullName     *string    `json:"full_name" binding:"omitempty,min=2,max=100"`
	Faculty      *string    `json:"faculty"`
	Department   *string    `json:"department"`
	Phone        *string    `json:"phone" binding:"omitempty,min=7,max=20"`
	ProfileImage *string    `json:"profile_image"`
	IDExpiration *time.Time `json:"id_expiration"`
}

// SetStatusRequest: payload for changing an account's standing
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active blocked closed"`
}

// SetRoleRequest: payload for promoting or demoting an account
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student librarian admin"`
}
