package dto

import (
	"time"

	"github.com/classly/classly-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a submission
// upload.
type SubmissionCreateRequest struct {
	IsHandWritten bool `form:"is_hand_written"`
}

// MarkSubmissionRequest is used by teachers to set a score manually.
type MarkSubmissionRequest struct {
	Score float64 `json:"score" validate:"gte=0"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint      `json:"id"`
	AssignmentID  uint      `json:"assignment_id"`
	StudentID     uint      `json:"student_id"`
	FileURL       string    `json:"file_url"`
	IsHandWritten bool      `json:"is_hand_written"`
	Score         *float64  `json:"score"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Student       UserLite  `json:"student"`
}

// UserLite summarizes a student without exposing full profile data.
type UserLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:            model.ID,
		AssignmentID:  model.AssignmentID,
		StudentID:     model.StudentID,
		FileURL:       model.FileURL,
		IsHandWritten: model.IsHandWritten,
		Score:         model.Score,
		SubmittedAt:   model.SubmittedAt,
	}

	if model.Student.ID != 0 {
		response.Student = UserLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
