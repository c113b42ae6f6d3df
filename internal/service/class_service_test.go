package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/models"
)

type memoryClassRepo struct {
	classes     map[uint]models.Class
	memberships []models.ClassMembership
	nextID      uint
}

func newMemoryClassRepo() *memoryClassRepo {
	return &memoryClassRepo{classes: make(map[uint]models.Class), nextID: 1}
}

func (m *memoryClassRepo) GetByID(_ context.Context, id uint) (models.Class, error) {
	class, ok := m.classes[id]
	if !ok {
		return models.Class{}, gorm.ErrRecordNotFound
	}
	return class, nil
}

func (m *memoryClassRepo) GetByInviteCode(_ context.Context, code string) (models.Class, error) {
	for _, class := range m.classes {
		if class.InviteCode == code {
			return class, nil
		}
	}
	return models.Class{}, gorm.ErrRecordNotFound
}

func (m *memoryClassRepo) ListByTeacher(_ context.Context, teacherID uint) ([]models.Class, error) {
	results := make([]models.Class, 0)
	for _, class := range m.classes {
		if class.TeacherID == teacherID {
			results = append(results, class)
		}
	}
	return results, nil
}

func (m *memoryClassRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Class, error) {
	results := make([]models.Class, 0)
	for _, membership := range m.memberships {
		if membership.StudentID == studentID {
			if class, ok := m.classes[membership.ClassID]; ok {
				results = append(results, class)
			}
		}
	}
	return results, nil
}

func (m *memoryClassRepo) ListMembers(_ context.Context, classID uint) ([]models.ClassMembership, error) {
	results := make([]models.ClassMembership, 0)
	for _, membership := range m.memberships {
		if membership.ClassID == classID {
			results = append(results, membership)
		}
	}
	return results, nil
}

func (m *memoryClassRepo) IsMember(_ context.Context, classID, studentID uint) (bool, error) {
	for _, membership := range m.memberships {
		if membership.ClassID == classID && membership.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryClassRepo) Create(_ context.Context, class *models.Class) error {
	class.ID = m.nextID
	m.classes[m.nextID] = *class
	m.nextID++
	return nil
}

func (m *memoryClassRepo) AddMember(_ context.Context, membership *models.ClassMembership) error {
	for _, existing := range m.memberships {
		if existing.ClassID == membership.ClassID && existing.StudentID == membership.StudentID {
			return nil
		}
	}
	m.memberships = append(m.memberships, *membership)
	return nil
}

func newTestClassService(repo *memoryClassRepo) ClassService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewClassService(repo, validate, zerolog.Nop())
}

func TestCreateClassGeneratesInviteCode(t *testing.T) {
	repo := newMemoryClassRepo()
	svc := newTestClassService(repo)

	class, err := svc.Create(context.Background(), models.User{ID: 1, Role: models.RoleTeacher}, dto.ClassCreateRequest{
		Name: "Algebra II", Section: "A", Subject: "Mathematics",
	})
	require.NoError(t, err)
	require.Len(t, class.InviteCode, 8)
	require.Equal(t, uint(1), class.TeacherID)
}

func TestCreateClassSanitizesMarkup(t *testing.T) {
	repo := newMemoryClassRepo()
	svc := newTestClassService(repo)

	class, err := svc.Create(context.Background(), models.User{ID: 1, Role: models.RoleTeacher}, dto.ClassCreateRequest{
		Name: "<script>alert(1)</script>Algebra", Section: "A", Subject: "Math",
	})
	require.NoError(t, err)
	require.Equal(t, "Algebra", class.Name)
}

func TestJoinClassByInviteCode(t *testing.T) {
	repo := newMemoryClassRepo()
	svc := newTestClassService(repo)

	teacher := models.User{ID: 1, Role: models.RoleTeacher}
	created, err := svc.Create(context.Background(), teacher, dto.ClassCreateRequest{
		Name: "Algebra", Section: "A", Subject: "Math",
	})
	require.NoError(t, err)

	student := models.User{ID: 2, Role: models.RoleStudent}
	joined, err := svc.Join(context.Background(), student, dto.JoinClassRequest{InviteCode: created.InviteCode})
	require.NoError(t, err)
	require.Equal(t, created.ID, joined.ID)
	// Students never see the invite code.
	require.Empty(t, joined.InviteCode)

	member, err := repo.IsMember(context.Background(), created.ID, student.ID)
	require.NoError(t, err)
	require.True(t, member)
}

func TestJoinClassInvalidCode(t *testing.T) {
	svc := newTestClassService(newMemoryClassRepo())

	_, err := svc.Join(context.Background(), models.User{ID: 2, Role: models.RoleStudent}, dto.JoinClassRequest{InviteCode: "NOPE1234"})
	require.ErrorIs(t, err, ErrInvalidInviteCode)
}

func TestJoinClassIsIdempotent(t *testing.T) {
	repo := newMemoryClassRepo()
	svc := newTestClassService(repo)

	created, err := svc.Create(context.Background(), models.User{ID: 1, Role: models.RoleTeacher}, dto.ClassCreateRequest{
		Name: "Algebra", Section: "A", Subject: "Math",
	})
	require.NoError(t, err)

	student := models.User{ID: 2, Role: models.RoleStudent}
	_, err = svc.Join(context.Background(), student, dto.JoinClassRequest{InviteCode: created.InviteCode})
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), student, dto.JoinClassRequest{InviteCode: created.InviteCode})
	require.NoError(t, err)

	members, err := repo.ListMembers(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestRequireMembershipDeniesOutsiders(t *testing.T) {
	repo := newMemoryClassRepo()
	svc := newTestClassService(repo)

	created, err := svc.Create(context.Background(), models.User{ID: 1, Role: models.RoleTeacher}, dto.ClassCreateRequest{
		Name: "Algebra", Section: "A", Subject: "Math",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), models.User{ID: 99, Role: models.RoleStudent}, created.ID)
	require.ErrorIs(t, err, ErrNotClassMember)
}

func TestGetClassIncludesRosterForOwner(t *testing.T) {
	repo := newMemoryClassRepo()
	svc := newTestClassService(repo)

	teacher := models.User{ID: 1, Role: models.RoleTeacher}
	created, err := svc.Create(context.Background(), teacher, dto.ClassCreateRequest{
		Name: "Algebra", Section: "A", Subject: "Math",
	})
	require.NoError(t, err)

	student := models.User{ID: 2, Role: models.RoleStudent}
	_, err = svc.Join(context.Background(), student, dto.JoinClassRequest{InviteCode: created.InviteCode})
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), teacher, created.ID)
	require.NoError(t, err)
	require.NotEmpty(t, detail.InviteCode)
	require.Len(t, detail.Members, 1)

	studentView, err := svc.Get(context.Background(), student, created.ID)
	require.NoError(t, err)
	require.Empty(t, studentView.InviteCode)
	require.Empty(t, studentView.Members)
}
