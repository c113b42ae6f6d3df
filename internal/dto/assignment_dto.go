package dto

import (
	"time"

	"github.com/classly/classly-api/internal/models"
)

// AssignmentCreateRequest describes the multipart payload for creating an
// assignment. Task and solution files travel alongside as form files.
type AssignmentCreateRequest struct {
	Name        string  `form:"name" validate:"required,min=2"`
	Description string  `form:"description" validate:"omitempty"`
	Deadline    string  `form:"deadline" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	MaxScore    float64 `form:"max_score" validate:"required,gt=0"`
}

// AssignmentUpdateRequest carries partial assignment updates. File fields
// travel as form files; absent fields stay unchanged.
type AssignmentUpdateRequest struct {
	Name        *string  `form:"name" validate:"omitempty,min=2"`
	Description *string  `form:"description"`
	Deadline    *string  `form:"deadline" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxScore    *float64 `form:"max_score" validate:"omitempty,gt=0"`
}

// AssignmentResponse is the serialized representation returned to API
// clients. The solution file is only exposed to the owning teacher.
type AssignmentResponse struct {
	ID              uint      `json:"id"`
	ClassID         uint      `json:"class_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Deadline        time.Time `json:"deadline"`
	MaxScore        float64   `json:"max_score"`
	TaskFileURL     string    `json:"task_file_url"`
	SolutionFileURL string    `json:"solution_file_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment, includeSolution bool) AssignmentResponse {
	response := AssignmentResponse{
		ID:          model.ID,
		ClassID:     model.ClassID,
		Name:        model.Name,
		Description: model.Description,
		Deadline:    model.Deadline,
		MaxScore:    model.MaxScore,
		TaskFileURL: model.TaskFileURL,
		CreatedAt:   model.CreatedAt,
	}

	if includeSolution {
		response.SolutionFileURL = model.SolutionFileURL
	}

	return response
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, includeSolution bool) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, includeSolution))
	}

	return responses
}
