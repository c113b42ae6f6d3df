package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/repository"
)

// ErrClassNotFound indicates the requested class does not exist.
var ErrClassNotFound = errors.New("class not found")

// ErrNotClassOwner indicates the caller does not teach the class.
var ErrNotClassOwner = errors.New("caller does not own this class")

// ErrNotClassMember indicates the caller is neither the teacher nor an
// enrolled student of the class.
var ErrNotClassMember = errors.New("caller is not a member of this class")

// ErrInvalidInviteCode indicates no class matches the invite code.
var ErrInvalidInviteCode = errors.New("invalid invite code")

// inviteCodeLength is the number of characters in generated invite codes.
const inviteCodeLength = 8

// ClassService exposes class and enrollment use cases.
type ClassService interface {
	Create(ctx context.Context, teacher models.User, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	Join(ctx context.Context, student models.User, payload dto.JoinClassRequest) (dto.ClassResponse, error)
	ListForUser(ctx context.Context, user models.User) ([]dto.ClassResponse, error)
	Get(ctx context.Context, user models.User, classID uint) (dto.ClassDetailResponse, error)
	RequireMembership(ctx context.Context, user models.User, classID uint) (models.Class, error)
}

type classService struct {
	classes   repository.ClassRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewClassService builds the class service.
func NewClassService(classes repository.ClassRepository, validate *validator.Validate, logger zerolog.Logger) ClassService {
	return &classService{
		classes:   classes,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, teacher models.User, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.Class{
		Name:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Name)),
		Section:    strings.TrimSpace(s.sanitizer.Sanitize(payload.Section)),
		Subject:    strings.TrimSpace(s.sanitizer.Sanitize(payload.Subject)),
		TeacherID:  teacher.ID,
		InviteCode: newInviteCode(),
	}

	if class.Name == "" || class.Section == "" || class.Subject == "" {
		return dto.ClassResponse{}, errors.New("class fields empty after sanitization")
	}

	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("teacher_id", teacher.ID).Msg("class created")

	return dto.NewClassResponse(class, true), nil
}

func (s *classService) Join(ctx context.Context, student models.User, payload dto.JoinClassRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	class, err := s.classes.GetByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(payload.InviteCode)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrInvalidInviteCode
		}

		return dto.ClassResponse{}, err
	}

	membership := models.ClassMembership{ClassID: class.ID, StudentID: student.ID}
	if err := s.classes.AddMember(ctx, &membership); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("student_id", student.ID).Msg("student joined class")

	return dto.NewClassResponse(class, false), nil
}

func (s *classService) ListForUser(ctx context.Context, user models.User) ([]dto.ClassResponse, error) {
	if user.IsTeacher() {
		classes, err := s.classes.ListByTeacher(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		return dto.NewClassResponseSlice(classes, true), nil
	}

	classes, err := s.classes.ListByStudent(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassResponseSlice(classes, false), nil
}

func (s *classService) Get(ctx context.Context, user models.User, classID uint) (dto.ClassDetailResponse, error) {
	class, err := s.RequireMembership(ctx, user, classID)
	if err != nil {
		return dto.ClassDetailResponse{}, err
	}

	isOwner := class.TeacherID == user.ID
	detail := dto.ClassDetailResponse{ClassResponse: dto.NewClassResponse(class, isOwner)}

	if isOwner {
		members, err := s.classes.ListMembers(ctx, classID)
		if err != nil {
			return dto.ClassDetailResponse{}, err
		}

		detail.Members = make([]dto.UserResponse, 0, len(members))
		for _, member := range members {
			detail.Members = append(detail.Members, dto.NewUserResponse(member.Student))
		}
	}

	return detail, nil
}

// RequireMembership loads the class and verifies the caller may access it:
// the owning teacher or an enrolled student.
func (s *classService) RequireMembership(ctx context.Context, user models.User, classID uint) (models.Class, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Class{}, ErrClassNotFound
		}

		return models.Class{}, err
	}

	if class.TeacherID == user.ID {
		return class, nil
	}

	member, err := s.classes.IsMember(ctx, classID, user.ID)
	if err != nil {
		return models.Class{}, err
	}
	if !member {
		return models.Class{}, ErrNotClassMember
	}

	return class, nil
}

func newInviteCode() string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return code[:inviteCodeLength]
}
