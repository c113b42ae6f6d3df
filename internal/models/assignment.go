package models

import "time"

// Assignment is a graded task published inside a class. Task and solution
// files are stored externally; the detected media types recorded at upload
// time drive the grading content encoder.
type Assignment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ClassID          uint      `gorm:"not null;uniqueIndex:idx_assignment_class_name" json:"class_id"`
	Name             string    `gorm:"size:255;not null;uniqueIndex:idx_assignment_class_name" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	Deadline         time.Time `gorm:"not null" json:"deadline"`
	TaskFileURL      string    `gorm:"size:1024" json:"task_file_url"`
	TaskFileType     string    `gorm:"size:255" json:"task_file_type"`
	SolutionFileURL  string    `gorm:"size:1024" json:"solution_file_url"`
	SolutionFileType string    `gorm:"size:255" json:"solution_file_type"`
	MaxScore         float64   `gorm:"not null" json:"max_score"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Class       Class        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submissions []Submission `json:"-"`
}

// IsPastDue returns true when the deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.Deadline)
}

// HasArtifacts reports whether both the task and the reference solution
// files are present, the precondition for auto-grading.
func (a Assignment) HasArtifacts() bool {
	return a.TaskFileURL != "" && a.SolutionFileURL != ""
}
