package dto

import "time"

// AssignmentProgress summarizes one assignment from a student's viewpoint.
type AssignmentProgress struct {
	AssignmentID uint      `json:"assignment_id"`
	ClassID      uint      `json:"class_id"`
	Name         string    `json:"name"`
	Deadline     time.Time `json:"deadline"`
	MaxScore     float64   `json:"max_score"`
	Status       string    `json:"status"`
	Score        *float64  `json:"score"`
	Overdue      bool      `json:"overdue"`
}

// ProgressSummary aggregates counts across a student's assignments.
type ProgressSummary struct {
	TotalAssignments int `json:"total_assignments"`
	Submitted        int `json:"submitted"`
	Graded           int `json:"graded"`
	Pending          int `json:"pending"`
}

// StudentDashboardResponse is the aggregated dashboard payload.
type StudentDashboardResponse struct {
	Summary      ProgressSummary      `json:"summary"`
	Assignments  []AssignmentProgress `json:"assignments"`
	AverageGrade *float64             `json:"average_grade"`
	GeneratedAt  time.Time            `json:"generated_at"`
}
