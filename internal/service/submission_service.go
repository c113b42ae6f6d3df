package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/grading"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/repository"
)

// ErrSubmissionNotFound indicates the requested submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrDeadlinePassed indicates the assignment deadline has already passed.
var ErrDeadlinePassed = errors.New("assignment deadline has passed")

// ErrAlreadySubmitted indicates the student already submitted for this
// assignment.
var ErrAlreadySubmitted = errors.New("submission already exists for this assignment")

// ErrScoreOutOfRange indicates a manual score outside [0, max score].
var ErrScoreOutOfRange = errors.New("score is outside the assignment range")

// SubmissionService exposes submission upload and review use cases.
type SubmissionService interface {
	Submit(ctx context.Context, student models.User, assignmentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, teacher models.User, assignmentID uint) ([]dto.SubmissionResponse, error)
	GetOwn(ctx context.Context, student models.User, assignmentID uint) (dto.SubmissionResponse, error)
	Mark(ctx context.Context, teacher models.User, submissionID uint, payload dto.MarkSubmissionRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	classes     ClassService
	store       FileStore
	activity    ActivityRecorder
	events      *EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService builds the submission service.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	classes ClassService,
	store FileStore,
	activity ActivityRecorder,
	events *EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		classes:     classes,
		store:       store,
		activity:    activity,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, student models.User, assignmentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("submission file is required")
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	if _, err := s.classes.RequireMembership(ctx, student, assignment.ClassID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if assignment.IsPastDue(s.now()) {
		return dto.SubmissionResponse{}, ErrDeadlinePassed
	}

	if _, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, student.ID); err == nil {
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	url, mediaType, err := storeFormFile(ctx, s.store, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID:  assignmentID,
		StudentID:     student.ID,
		FileURL:       url,
		FileType:      mediaType,
		IsHandWritten: payload.IsHandWritten,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignmentID).
		Bool("handwritten", submission.IsHandWritten).
		Msg("submission received")

	s.events.Publish(SubjectSubmissionReceived, map[string]interface{}{
		"submission_id": submission.ID,
		"assignment_id": assignmentID,
		"student_id":    student.ID,
	})

	submission.Student = student

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, teacher models.User, assignmentID uint) ([]dto.SubmissionResponse, error) {
	if _, err := s.ownedAssignment(ctx, teacher, assignmentID); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetOwn(ctx context.Context, student models.User, assignmentID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Mark(ctx context.Context, teacher models.User, submissionID uint, payload dto.MarkSubmissionRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.ownedAssignment(ctx, teacher, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if payload.Score < 0 || payload.Score > assignment.MaxScore {
		return dto.SubmissionResponse{}, ErrScoreOutOfRange
	}

	score := grading.RoundQuarter(payload.Score)
	if err := s.submissions.UpdateScore(ctx, submissionID, score); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission.Score = &score

	s.logger.Info().
		Uint("submission_id", submissionID).
		Float64("score", score).
		Msg("submission marked manually")

	entityID := submissionID
	s.activity.Record(ctx, teacher, ActionManualMark, "submission", &entityID, map[string]interface{}{
		"assignment_id": submission.AssignmentID,
		"score":         score,
	})

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ownedAssignment(ctx context.Context, teacher models.User, assignmentID uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}

		return models.Assignment{}, err
	}

	if assignment.Class.TeacherID != teacher.ID {
		return models.Assignment{}, ErrNotClassOwner
	}

	return assignment, nil
}
