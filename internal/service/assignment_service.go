package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrTaskFileRequired indicates an assignment was created without a task file.
var ErrTaskFileRequired = errors.New("task file is required")

// FileStore abstracts artifact storage: uploads return a stable URL and
// Open fetches the stored bytes back for grading.
type FileStore interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
	Open(ctx context.Context, url string) ([]byte, error)
}

// AssignmentFiles bundles the optional form files of a create or update
// request.
type AssignmentFiles struct {
	Task     *multipart.FileHeader
	Solution *multipart.FileHeader
}

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	Create(ctx context.Context, teacher models.User, classID uint, payload dto.AssignmentCreateRequest, files AssignmentFiles) (dto.AssignmentResponse, error)
	Update(ctx context.Context, teacher models.User, assignmentID uint, payload dto.AssignmentUpdateRequest, files AssignmentFiles) (dto.AssignmentResponse, error)
	ListByClass(ctx context.Context, user models.User, classID uint) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, user models.User, assignmentID uint) (dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	classes     ClassService
	store       FileStore
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds the assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, classes ClassService, store FileStore, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		classes:     classes,
		store:       store,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, teacher models.User, classID uint, payload dto.AssignmentCreateRequest, files AssignmentFiles) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	class, err := s.classes.RequireMembership(ctx, teacher, classID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if class.TeacherID != teacher.ID {
		return dto.AssignmentResponse{}, ErrNotClassOwner
	}

	if files.Task == nil {
		return dto.AssignmentResponse{}, ErrTaskFileRequired
	}

	deadline, err := time.Parse(time.RFC3339, payload.Deadline)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid deadline: %w", err)
	}
	if !deadline.After(s.now()) {
		return dto.AssignmentResponse{}, fmt.Errorf("deadline must be in the future")
	}

	assignment := models.Assignment{
		ClassID:     classID,
		Name:        strings.TrimSpace(payload.Name),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Deadline:    deadline,
		MaxScore:    payload.MaxScore,
	}

	assignment.TaskFileURL, assignment.TaskFileType, err = s.storeFile(ctx, files.Task)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if files.Solution != nil {
		assignment.SolutionFileURL, assignment.SolutionFileType, err = s.storeFile(ctx, files.Solution)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("class_id", classID).
		Bool("has_solution", assignment.SolutionFileURL != "").
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, true), nil
}

func (s *assignmentService) Update(ctx context.Context, teacher models.User, assignmentID uint, payload dto.AssignmentUpdateRequest, files AssignmentFiles) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.ownedAssignment(ctx, teacher, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Name != nil {
		assignment.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		assignment.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.MaxScore != nil {
		assignment.MaxScore = *payload.MaxScore
	}
	if payload.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *payload.Deadline)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid deadline: %w", err)
		}
		assignment.Deadline = deadline
	}

	if files.Task != nil {
		assignment.TaskFileURL, assignment.TaskFileType, err = s.storeFile(ctx, files.Task)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
	}
	if files.Solution != nil {
		assignment.SolutionFileURL, assignment.SolutionFileType, err = s.storeFile(ctx, files.Solution)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment, true), nil
}

func (s *assignmentService) ListByClass(ctx context.Context, user models.User, classID uint) ([]dto.AssignmentResponse, error) {
	class, err := s.classes.RequireMembership(ctx, user, classID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments, class.TeacherID == user.ID), nil
}

func (s *assignmentService) Get(ctx context.Context, user models.User, assignmentID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	class, err := s.classes.RequireMembership(ctx, user, assignment.ClassID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment, class.TeacherID == user.ID), nil
}

func (s *assignmentService) ownedAssignment(ctx context.Context, teacher models.User, assignmentID uint) (models.Assignment, error) {
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

func (s *assignmentService) storeFile(ctx context.Context, file *multipart.FileHeader) (string, string, error) {
	return storeFormFile(ctx, s.store, file)
}
