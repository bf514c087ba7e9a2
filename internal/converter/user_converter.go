package converter

import (
	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// UserToResponse converts a User entity to UserResponse DTO
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role.RoleName,
		PhoneNumber: user.PhoneNumber,
		Gender:      user.Gender,
		Address:     user.Address,
		BloodType:   user.BloodType,
		IsActive:    user.Active(),
		TOTPEnabled: user.TOTPEnabled,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}

	// Role is not always preloaded
	if response.Role == "" {
		response.Role = entity.RoleNameByID(user.RoleID)
	}

	if user.DateOfBirth != nil {
		response.DateOfBirth = user.DateOfBirth.Format(dateLayout)
	}

	return response
}
