package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/models"
)

type recordingFileStore struct {
	uploads []string
}

func (r *recordingFileStore) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}
	r.uploads = append(r.uploads, name)
	return fmt.Sprintf("https://files.test/%s", name), nil
}

func (r *recordingFileStore) Open(_ context.Context, url string) ([]byte, error) {
	return nil, fmt.Errorf("unknown artifact %s", url)
}

func newTestFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(len(content))+1024))
	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

type submissionFixture struct {
	service     SubmissionService
	submissions *memorySubmissionRepo
	assignment  models.Assignment
	teacher     models.User
	student     models.User
}

func newSubmissionFixture(t *testing.T) submissionFixture {
	t.Helper()

	teacher := models.User{ID: 1, Role: models.RoleTeacher}
	student := models.User{ID: 2, Role: models.RoleStudent}

	classRepo := newMemoryClassRepo()
	class := models.Class{Name: "Algebra", Section: "A", Subject: "Math", TeacherID: teacher.ID, InviteCode: "ABCD1234"}
	require.NoError(t, classRepo.Create(context.Background(), &class))
	require.NoError(t, classRepo.AddMember(context.Background(), &models.ClassMembership{ClassID: class.ID, StudentID: student.ID}))

	assignments := newMemoryAssignmentRepo()
	assignment := models.Assignment{
		ClassID:  class.ID,
		Name:     "Homework 1",
		Deadline: time.Now().Add(24 * time.Hour),
		MaxScore: 100,
		Class:    class,
	}
	require.NoError(t, assignments.Create(context.Background(), &assignment))

	submissions := newMemorySubmissionRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	classService := NewClassService(classRepo, validate, zerolog.Nop())

	svc := NewSubmissionService(
		submissions,
		assignments,
		classService,
		&recordingFileStore{},
		&stubActivityRecorder{},
		NewEventPublisher(nil, zerolog.Nop()),
		validate,
		zerolog.Nop(),
	)

	return submissionFixture{
		service:     svc,
		submissions: submissions,
		assignment:  assignment,
		teacher:     teacher,
		student:     student,
	}
}

func TestSubmitStoresFileAndMetadata(t *testing.T) {
	fx := newSubmissionFixture(t)

	file := newTestFileHeader(t, "homework.txt", []byte("my answer"))
	response, err := fx.service.Submit(context.Background(), fx.student, fx.assignment.ID, dto.SubmissionCreateRequest{IsHandWritten: true}, file)
	require.NoError(t, err)
	require.Equal(t, fx.student.ID, response.StudentID)
	require.True(t, response.IsHandWritten)
	require.Nil(t, response.Score)

	stored, err := fx.submissions.GetByAssignmentAndStudent(context.Background(), fx.assignment.ID, fx.student.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.FileURL)
	require.NotEmpty(t, stored.FileType)
}

func TestSubmitRejectsAfterDeadline(t *testing.T) {
	fx := newSubmissionFixture(t)

	past := fx.assignment
	past.ID = 0
	past.Name = "Late Homework"
	past.Deadline = time.Now().Add(-time.Hour)

	assignments := newMemoryAssignmentRepo()
	require.NoError(t, assignments.Create(context.Background(), &past))

	classRepo := newMemoryClassRepo()
	class := past.Class
	require.NoError(t, classRepo.Create(context.Background(), &class))
	require.NoError(t, classRepo.AddMember(context.Background(), &models.ClassMembership{ClassID: class.ID, StudentID: fx.student.ID}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSubmissionService(
		newMemorySubmissionRepo(),
		assignments,
		NewClassService(classRepo, validate, zerolog.Nop()),
		&recordingFileStore{},
		&stubActivityRecorder{},
		NewEventPublisher(nil, zerolog.Nop()),
		validate,
		zerolog.Nop(),
	)

	file := newTestFileHeader(t, "late.txt", []byte("too late"))
	_, err := svc.Submit(context.Background(), fx.student, past.ID, dto.SubmissionCreateRequest{}, file)
	require.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	fx := newSubmissionFixture(t)

	file := newTestFileHeader(t, "homework.txt", []byte("my answer"))
	_, err := fx.service.Submit(context.Background(), fx.student, fx.assignment.ID, dto.SubmissionCreateRequest{}, file)
	require.NoError(t, err)

	_, err = fx.service.Submit(context.Background(), fx.student, fx.assignment.ID, dto.SubmissionCreateRequest{}, newTestFileHeader(t, "homework2.txt", []byte("again")))
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitRejectsNonMembers(t *testing.T) {
	fx := newSubmissionFixture(t)

	outsider := models.User{ID: 42, Role: models.RoleStudent}
	file := newTestFileHeader(t, "homework.txt", []byte("answer"))
	_, err := fx.service.Submit(context.Background(), outsider, fx.assignment.ID, dto.SubmissionCreateRequest{}, file)
	require.ErrorIs(t, err, ErrNotClassMember)
}

func TestListByAssignmentRequiresOwnership(t *testing.T) {
	fx := newSubmissionFixture(t)

	_, err := fx.service.ListByAssignment(context.Background(), models.User{ID: 42, Role: models.RoleTeacher}, fx.assignment.ID)
	require.ErrorIs(t, err, ErrNotClassOwner)
}

func TestMarkStoresQuarterRoundedScore(t *testing.T) {
	fx := newSubmissionFixture(t)

	file := newTestFileHeader(t, "homework.txt", []byte("my answer"))
	response, err := fx.service.Submit(context.Background(), fx.student, fx.assignment.ID, dto.SubmissionCreateRequest{}, file)
	require.NoError(t, err)

	marked, err := fx.service.Mark(context.Background(), fx.teacher, response.ID, dto.MarkSubmissionRequest{Score: 87.1})
	require.NoError(t, err)
	require.NotNil(t, marked.Score)
	require.Equal(t, 87.0, *marked.Score)
}

func TestMarkRejectsOutOfRangeScore(t *testing.T) {
	fx := newSubmissionFixture(t)

	file := newTestFileHeader(t, "homework.txt", []byte("my answer"))
	response, err := fx.service.Submit(context.Background(), fx.student, fx.assignment.ID, dto.SubmissionCreateRequest{}, file)
	require.NoError(t, err)

	_, err = fx.service.Mark(context.Background(), fx.teacher, response.ID, dto.MarkSubmissionRequest{Score: 150})
	require.ErrorIs(t, err, ErrScoreOutOfRange)
}
