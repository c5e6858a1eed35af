package dto

type CreateStudentRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	RollNumber  string `json:"roll_number" validate:"required"`
	Class       string `json:"class" validate:"required"`
	Section     string `json:"section" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Address     string `json:"address" validate:"required"`
}

// UpdateStudentRequest uses pointer fields so handlers can tell an omitted
// field apart from one explicitly set to its zero value.
type UpdateStudentRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Email       *string `json:"email" validate:"omitempty,email"`
	RollNumber  *string `json:"roll_number" validate:"omitempty,min=1"`
	Class       *string `json:"class" validate:"omitempty,min=1"`
	Section     *string `json:"section" validate:"omitempty,min=1"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" validate:"omitempty,min=1"`
}
