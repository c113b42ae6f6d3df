package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classly/classly-api/internal/config"
	"github.com/classly/classly-api/internal/handler"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/repository"
	"github.com/classly/classly-api/internal/router"
	"github.com/classly/classly-api/internal/service"
	"github.com/classly/classly-api/internal/utils"
	"github.com/classly/classly-api/pkg/ai"
	"github.com/classly/classly-api/pkg/ocr"
)

type testFileStore map[string][]byte

func (t testFileStore) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}

func (t testFileStore) Open(_ context.Context, url string) ([]byte, error) {
	data, ok := t[url]
	if !ok {
		return nil, fmt.Errorf("unknown artifact %s", url)
	}
	return data, nil
}

type scriptedGrader struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (g *scriptedGrader) Grade(context.Context, []ai.Part) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.reply, nil
}

func setupGradingApp(t *testing.T, store testFileStore, grader ai.Grader) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassMembership{},
		&models.Assignment{},
		&models.Submission{},
		&models.ActivityLog{},
	))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	gradingService := service.NewGradingService(
		assignmentRepo,
		submissionRepo,
		store,
		grader,
		ocr.New("", time.Second, logger),
		service.NewActivityRecorder(activityRepo, logger),
		service.NewEventPublisher(nil, logger),
		logger,
	)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		GradingHandler: handler.NewGradingHandler(gradingService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(
			service.NewAssignmentService(assignmentRepo, service.NewClassService(repository.NewClassRepository(db), validate, logger), store, validate, logger),
			logger,
		),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", models.RoleTeacher)
			return c.Next()
		},
	})

	return app, db
}

func seedGradingData(t *testing.T, db *gorm.DB, withArtifacts bool, submissionCount int) models.Assignment {
	t.Helper()

	teacher := models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: models.RoleTeacher}
	require.NoError(t, db.Create(&teacher).Error)

	class := models.Class{Name: "Algebra", Section: "A", Subject: "Math", TeacherID: teacher.ID, InviteCode: "ABCD1234"}
	require.NoError(t, db.Create(&class).Error)

	assignment := models.Assignment{
		ClassID:  class.ID,
		Name:     "Homework 1",
		Deadline: time.Now().Add(24 * time.Hour),
		MaxScore: 100,
	}
	if withArtifacts {
		assignment.TaskFileURL = "https://files.test/task.txt"
		assignment.TaskFileType = "text/plain"
		assignment.SolutionFileURL = "https://files.test/solution.txt"
		assignment.SolutionFileType = "text/plain"
	}
	require.NoError(t, db.Create(&assignment).Error)

	for i := 0; i < submissionCount; i++ {
		student := models.User{
			Name:         fmt.Sprintf("Student %d", i),
			Email:        fmt.Sprintf("student%d@example.com", i),
			PasswordHash: "x",
			Role:         models.RoleStudent,
		}
		require.NoError(t, db.Create(&student).Error)

		submission := models.Submission{
			AssignmentID: assignment.ID,
			StudentID:    student.ID,
			FileURL:      fmt.Sprintf("https://files.test/sub-%d.txt", i),
			FileType:     "text/plain",
		}
		require.NoError(t, db.Create(&submission).Error)
	}

	return assignment
}

func decodeResponse(t *testing.T, body io.Reader) utils.APIResponse {
	t.Helper()
	var decoded utils.APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&decoded))
	return decoded
}

func TestAutocheckGradesPendingSubmissions(t *testing.T) {
	store := testFileStore{
		"https://files.test/task.txt":     []byte("solve for x"),
		"https://files.test/solution.txt": []byte("x = 4"),
		"https://files.test/sub-0.txt":    []byte("x = 5"),
		"https://files.test/sub-1.txt":    []byte("x = 4"),
	}
	grader := &scriptedGrader{reply: "Score: 75"}

	app, db := setupGradingApp(t, store, grader)
	assignment := seedGradingData(t, db, true, 2)

	request := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/assignments/%d/autocheck", assignment.ID), nil)
	response, err := app.Test(request, 30000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, response.StatusCode)

	decoded := decodeResponse(t, response.Body)
	require.True(t, decoded.Success)
	require.Equal(t, 2, grader.calls)

	var graded int64
	require.NoError(t, db.Model(&models.Submission{}).Where("assignment_id = ? AND score IS NOT NULL", assignment.ID).Count(&graded).Error)
	require.Equal(t, int64(2), graded)
}

func TestAutocheckRequiresArtifacts(t *testing.T) {
	grader := &scriptedGrader{reply: "Score: 75"}
	app, db := setupGradingApp(t, testFileStore{}, grader)
	assignment := seedGradingData(t, db, false, 1)

	request := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/assignments/%d/autocheck", assignment.ID), nil)
	response, err := app.Test(request, 30000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, response.StatusCode)
	require.Zero(t, grader.calls)
}

func TestAutocheckNoPendingSubmissions(t *testing.T) {
	store := testFileStore{
		"https://files.test/task.txt":     []byte("task"),
		"https://files.test/solution.txt": []byte("solution"),
	}
	app, db := setupGradingApp(t, store, &scriptedGrader{reply: "Score: 75"})
	assignment := seedGradingData(t, db, true, 0)

	request := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/assignments/%d/autocheck", assignment.ID), nil)
	response, err := app.Test(request, 30000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, response.StatusCode)
}

func TestResetScoresEndpoint(t *testing.T) {
	store := testFileStore{
		"https://files.test/task.txt":     []byte("task"),
		"https://files.test/solution.txt": []byte("solution"),
		"https://files.test/sub-0.txt":    []byte("answer"),
	}
	grader := &scriptedGrader{reply: "Score: 60"}
	app, db := setupGradingApp(t, store, grader)
	assignment := seedGradingData(t, db, true, 1)

	request := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/assignments/%d/autocheck", assignment.ID), nil)
	response, err := app.Test(request, 30000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, response.StatusCode)

	request = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/assignments/%d/reset-scores", assignment.ID), nil)
	response, err = app.Test(request, 30000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, response.StatusCode)

	var remaining int64
	require.NoError(t, db.Model(&models.Submission{}).Where("assignment_id = ? AND score IS NOT NULL", assignment.ID).Count(&remaining).Error)
	require.Zero(t, remaining)
}

func TestAutocheckUnknownAssignment(t *testing.T) {
	app, _ := setupGradingApp(t, testFileStore{}, &scriptedGrader{reply: "Score: 10"})

	request := httptest.NewRequest("POST", "/api/v1/assignments/999/autocheck", nil)
	response, err := app.Test(request, 30000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, response.StatusCode)
}
