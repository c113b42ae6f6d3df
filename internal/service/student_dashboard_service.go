package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/grading"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/repository"
)

// StudentDashboardService aggregates a student's progress across every
// class they joined.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, student models.User) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	classes     repository.ClassRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator.
func NewStudentDashboardService(
	classes repository.ClassRepository,
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) StudentDashboardService {
	return &studentDashboardService{
		classes:     classes,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, student models.User) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", student.ID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", student.ID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	classes, err := s.classes.ListByStudent(ctx, student.ID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	var assignments []models.Assignment
	for _, class := range classes {
		classAssignments, err := s.assignments.ListByClass(ctx, class.ID)
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}
		assignments = append(assignments, classAssignments...)
	}

	submissions, err := s.submissions.ListByStudent(ctx, student.ID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(assignments, submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *studentDashboardService) buildResponse(assignments []models.Assignment, submissions []models.Submission) dto.StudentDashboardResponse {
	now := s.now()

	submissionByAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		submissionByAssignment[submission.AssignmentID] = submission
	}

	summary := dto.ProgressSummary{}
	progress := make([]dto.AssignmentProgress, 0, len(assignments))
	var gradeTotal float64
	var gradedCount int

	for _, assignment := range assignments {
		summary.TotalAssignments++

		entry := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			ClassID:      assignment.ClassID,
			Name:         assignment.Name,
			Deadline:     assignment.Deadline,
			MaxScore:     assignment.MaxScore,
			Status:       "pending",
			Overdue:      assignment.IsPastDue(now),
		}

		if submission, ok := submissionByAssignment[assignment.ID]; ok {
			summary.Submitted++
			entry.Status = "submitted"
			entry.Overdue = false

			if submission.IsGraded() {
				summary.Graded++
				entry.Status = "graded"
				entry.Score = submission.Score

				if assignment.MaxScore > 0 {
					gradeTotal += *submission.Score / assignment.MaxScore * 100
					gradedCount++
				}
			}
		} else {
			summary.Pending++
		}

		progress = append(progress, entry)
	}

	response := dto.StudentDashboardResponse{
		Summary:     summary,
		Assignments: progress,
		GeneratedAt: now.UTC(),
	}

	if gradedCount > 0 {
		average := grading.RoundQuarter(gradeTotal / float64(gradedCount))
		response.AverageGrade = &average
	}

	return response
}
