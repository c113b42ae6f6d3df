package dto

import (
	"time"

	"github.com/classly/classly-api/internal/models"
)

// ClassCreateRequest describes the payload for creating a class.
type ClassCreateRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Section string `json:"section" validate:"required"`
	Subject string `json:"subject" validate:"required"`
}

// JoinClassRequest carries the invite code a student joins with.
type JoinClassRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

// ClassResponse is the serialized representation returned to API clients.
type ClassResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Section    string    `json:"section"`
	Subject    string    `json:"subject"`
	TeacherID  uint      `json:"teacher_id"`
	InviteCode string    `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClassDetailResponse adds the member roster for teachers.
type ClassDetailResponse struct {
	ClassResponse
	Members []UserResponse `json:"members,omitempty"`
}

// NewClassResponse converts a model into a DTO. The invite code is only
// included for the owning teacher.
func NewClassResponse(model models.Class, includeInvite bool) ClassResponse {
	response := ClassResponse{
		ID:        model.ID,
		Name:      model.Name,
		Section:   model.Section,
		Subject:   model.Subject,
		TeacherID: model.TeacherID,
		CreatedAt: model.CreatedAt,
	}

	if includeInvite {
		response.InviteCode = model.InviteCode
	}

	return response
}

// NewClassResponseSlice converts class models into DTOs.
func NewClassResponseSlice(classes []models.Class, includeInvite bool) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class, includeInvite))
	}

	return responses
}
