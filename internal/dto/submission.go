package dto

import "github.com/alphard-edu/exam-registration-api/internal/models"

// SubmitForm binds the public registration form. Whitespace is trimmed
// before validation; every field is required.
type SubmitForm struct {
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	BirthDate string `form:"birth_date"`
	CNP       string `form:"cnp"`
	Phone     string `form:"phone"`
	Email     string `form:"email"`
	Exam      string `form:"exam"`
}

// ListSubmissionsResponse is the admin listing body. The rows key is a hard
// contract with the admin UI.
type ListSubmissionsResponse struct {
	Rows []models.Submission `json:"rows"`
}

// UpdateSubmissionRequest carries the desired done flag. A pointer
// distinguishes a missing field from an explicit false.
type UpdateSubmissionRequest struct {
	Done *bool `json:"done" binding:"required"`
}

// AckResponse acknowledges a mutation.
type AckResponse struct {
	OK bool `json:"ok"`
}
