package models

import "time"

// Submission is one student's answer to one assignment. A nil Score marks
// the submission as ungraded, which is the auto-grading queue predicate.
type Submission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AssignmentID  uint      `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID     uint      `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	FileURL       string    `gorm:"size:1024" json:"file_url"`
	FileType      string    `gorm:"size:255" json:"file_type"`
	IsHandWritten bool      `gorm:"not null" json:"is_hand_written"`
	Score         *float64  `json:"score"`
	SubmittedAt   time.Time `gorm:"autoCreateTime" json:"submitted_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Assignment Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student    User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsGraded reports whether a score has been recorded.
func (s Submission) IsGraded() bool {
	return s.Score != nil
}
