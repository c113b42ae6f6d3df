package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classly/classly-api/internal/models"
)

// ClassRepository defines persistence operations for classes and
// memberships.
type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (models.Class, error)
	GetByInviteCode(ctx context.Context, code string) (models.Class, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Class, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Class, error)
	ListMembers(ctx context.Context, classID uint) ([]models.ClassMembership, error)
	IsMember(ctx context.Context, classID, studentID uint) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	AddMember(ctx context.Context, membership *models.ClassMembership) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates a GORM-backed repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).Preload("Teacher").First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) GetByInviteCode(ctx context.Context, code string) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&class).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&classes).Error; err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *classRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.WithContext(ctx).
		Joins("JOIN class_memberships ON class_memberships.class_id = classes.id").
		Where("class_memberships.student_id = ?", studentID).
		Order("classes.created_at DESC").
		Find(&classes).Error; err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *classRepository) ListMembers(ctx context.Context, classID uint) ([]models.ClassMembership, error) {
	var members []models.ClassMembership
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("class_id = ?", classID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

func (r *classRepository) IsMember(ctx context.Context, classID, studentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ClassMembership{}).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) AddMember(ctx context.Context, membership *models.ClassMembership) error {
	return r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", membership.ClassID, membership.StudentID).
		FirstOrCreate(membership).Error
}
