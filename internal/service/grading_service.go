package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/grading"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/observability"
	"github.com/classly/classly-api/internal/repository"
	"github.com/classly/classly-api/pkg/ai"
	"github.com/classly/classly-api/pkg/ocr"
)

// ErrMissingArtifacts indicates the assignment lacks a task or solution
// file, the precondition for auto-grading.
var ErrMissingArtifacts = errors.New("assignment is missing its task or solution file")

// ErrNoUngradedSubmissions indicates there is nothing to grade.
var ErrNoUngradedSubmissions = errors.New("no unchecked submissions found")

// ErrNoGradedSubmissions indicates there are no scores to reset.
var ErrNoGradedSubmissions = errors.New("no graded submissions found")

// maxConcurrentGrades bounds the per-batch fan-out against the model API.
const maxConcurrentGrades = 4

// GradingService runs the auto-grading batch over an assignment's ungraded
// submissions and resets previously assigned scores.
type GradingService interface {
	AutoGrade(ctx context.Context, teacher models.User, assignmentID uint) ([]dto.SubmissionResponse, error)
	ResetScores(ctx context.Context, teacher models.User, assignmentID uint) (int64, error)
}

type gradingService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	store       FileStore
	grader      ai.Grader
	ocr         *ocr.Client
	activity    ActivityRecorder
	events      *EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewGradingService builds the batch orchestrator.
func NewGradingService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	store FileStore,
	grader ai.Grader,
	ocrClient *ocr.Client,
	activity ActivityRecorder,
	events *EventPublisher,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		assignments: assignments,
		submissions: submissions,
		store:       store,
		grader:      grader,
		ocr:         ocrClient,
		activity:    activity,
		events:      events,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/classly/classly-api/internal/service/grading"),
	}
}

func (s *gradingService) AutoGrade(ctx context.Context, teacher models.User, assignmentID uint) ([]dto.SubmissionResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "grading.auto_grade",
		trace.WithAttributes(attribute.Int64("assignment.id", int64(assignmentID))))
	defer span.End()

	assignment, err := s.ownedAssignment(spanCtx, teacher, assignmentID)
	if err != nil {
		return nil, err
	}

	if !assignment.HasArtifacts() {
		observability.GradingBatches().WithLabelValues("rejected").Inc()
		return nil, ErrMissingArtifacts
	}

	pending, err := s.submissions.ListUngraded(spanCtx, assignmentID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	eligible := pending[:0]
	for _, submission := range pending {
		if submission.FileURL != "" {
			eligible = append(eligible, submission)
		}
	}
	if len(eligible) == 0 {
		observability.GradingBatches().WithLabelValues("rejected").Inc()
		return nil, ErrNoUngradedSubmissions
	}

	taskData, err := s.store.Open(spanCtx, assignment.TaskFileURL)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch task file: %w", err)
	}

	solutionData, err := s.store.Open(spanCtx, assignment.SolutionFileURL)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch solution file: %w", err)
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Int("submissions", len(eligible)).
		Msg("auto-grading batch started")

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentGrades)
	var mu sync.Mutex
	graded := 0

	for _, submission := range eligible {
		wg.Add(1)
		sem <- struct{}{}
		go func(submission models.Submission) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := s.gradeOne(spanCtx, assignment, submission, taskData, solutionData)
			if !outcome.Graded {
				observability.GradingOutcomes().WithLabelValues("failed").Inc()
				return
			}

			if err := s.submissions.UpdateScore(spanCtx, submission.ID, outcome.Score); err != nil {
				s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to persist score")
				observability.GradingOutcomes().WithLabelValues("failed").Inc()
				return
			}

			observability.GradingOutcomes().WithLabelValues("graded").Inc()
			mu.Lock()
			graded++
			mu.Unlock()
		}(submission)
	}
	wg.Wait()

	observability.GradingBatches().WithLabelValues("completed").Inc()
	span.SetAttributes(
		attribute.Int("grading.submissions", len(eligible)),
		attribute.Int("grading.graded", graded),
	)

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Int("graded", graded).
		Int("failed", len(eligible)-graded).
		Msg("auto-grading batch finished")

	entityID := assignmentID
	s.activity.Record(spanCtx, teacher, ActionGradingBatch, "assignment", &entityID, map[string]interface{}{
		"submissions": len(eligible),
		"graded":      graded,
	})
	s.events.Publish(SubjectGradingCompleted, map[string]interface{}{
		"assignment_id": assignmentID,
		"submissions":   len(eligible),
		"graded":        graded,
	})

	refreshed, err := s.submissions.ListByAssignment(spanCtx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(refreshed), nil
}

// gradeOne runs the full pipeline for a single submission. Failures at any
// stage are logged and yield a no-score outcome; one bad submission never
// poisons the batch.
func (s *gradingService) gradeOne(ctx context.Context, assignment models.Assignment, submission models.Submission, taskData, solutionData []byte) (outcome grading.Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error().
				Uint("submission_id", submission.ID).
				Interface("panic", recovered).
				Msg("grading worker panicked")
			outcome = grading.NoScore()
		}
	}()

	logger := s.logger.With().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Logger()

	taskPart, err := grading.EncodeArtifact(assignment.TaskFileType, taskData)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode task file")
		return grading.NoScore()
	}

	solutionPart, err := grading.EncodeArtifact(assignment.SolutionFileType, solutionData)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode solution file")
		return grading.NoScore()
	}

	submissionData, err := s.store.Open(ctx, submission.FileURL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch submission file")
		return grading.NoScore()
	}

	submissionPart, err := grading.EncodeArtifact(submission.FileType, submissionData)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode submission file")
		return grading.NoScore()
	}

	prompt := grading.BuildPrompt(grading.PromptInput{
		Subject:     assignment.Class.Subject,
		MaxScore:    assignment.MaxScore,
		Task:        taskPart,
		Solution:    solutionPart,
		Submission:  submissionPart,
		OCRText:     s.resolveOCRText(ctx, submission, submissionPart, logger),
		Handwritten: submission.IsHandWritten,
	})

	reply, err := s.grader.Grade(ctx, prompt)
	if err != nil {
		logger.Error().Err(err).Msg("grading request failed")
		return grading.NoScore()
	}

	score, err := grading.ExtractScore(reply, assignment.MaxScore)
	if err != nil {
		logger.Warn().Str("reply", reply).Msg("model reply contained no usable score")
		return grading.NoScore()
	}

	return grading.GradedOutcome(grading.RoundQuarter(score))
}

// resolveOCRText transcribes handwritten PNG submissions through the OCR
// service. Any OCR failure degrades silently to an empty transcript; the
// model still grades from the image alone.
func (s *gradingService) resolveOCRText(ctx context.Context, submission models.Submission, part ai.Part, logger zerolog.Logger) string {
	if !submission.IsHandWritten || submission.FileType != "image/png" || part.Type != ai.PartTypeImage || !s.ocr.Configured() {
		return ""
	}

	text, err := s.ocr.Predict(ctx, part.Data)
	if err != nil {
		logger.Warn().Err(err).Msg("ocr transcription failed")
		return ""
	}

	return text
}

func (s *gradingService) ResetScores(ctx context.Context, teacher models.User, assignmentID uint) (int64, error) {
	spanCtx, span := s.tracer.Start(ctx, "grading.reset_scores",
		trace.WithAttributes(attribute.Int64("assignment.id", int64(assignmentID))))
	defer span.End()

	if _, err := s.ownedAssignment(spanCtx, teacher, assignmentID); err != nil {
		return 0, err
	}

	count, err := s.submissions.ResetScores(spanCtx, assignmentID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if count == 0 {
		return 0, ErrNoGradedSubmissions
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Int64("reset", count).
		Msg("submission scores reset")

	entityID := assignmentID
	s.activity.Record(spanCtx, teacher, ActionScoresReset, "assignment", &entityID, map[string]interface{}{
		"reset": count,
	})
	s.events.Publish(SubjectScoresReset, map[string]interface{}{
		"assignment_id": assignmentID,
		"reset":         count,
	})

	return count, nil
}

func (s *gradingService) ownedAssignment(ctx context.Context, teacher models.User, assignmentID uint) (models.Assignment, error) {
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
