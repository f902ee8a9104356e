package attempts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/pkg/query"
	"github.com/JaimeStill/speakeval/pkg/repository"
)

// Store persists attempts and answers.
type Store interface {
	Attempt(ctx context.Context, id uuid.UUID) (*Attempt, error)
	Exam(ctx context.Context, id uuid.UUID) (*Exam, error)

	// Questions returns the exam's questions ordered by Order.
	Questions(ctx context.Context, examID uuid.UUID) ([]Question, error)

	// Question returns ErrQuestionNotFound unless the question belongs to examID.
	Question(ctx context.Context, examID, questionID uuid.UUID) (*Question, error)

	Answers(ctx context.Context, attemptID uuid.UUID) ([]Answer, error)

	// Draft returns the answer for the question, creating an empty draft
	// when none exists.
	Draft(ctx context.Context, attemptID, questionID uuid.UUID) (*Answer, error)

	// Append adds text to the draft, separated by a single space. It returns
	// ErrFinalized when the answer is already graded.
	Append(ctx context.Context, attemptID, questionID uuid.UUID, text string) (*Answer, error)

	// Finalize records a grade, creating the answer if needed.
	Finalize(ctx context.Context, attemptID, questionID uuid.UUID, g Grade) (*Answer, error)

	// Complete marks the attempt completed with the given total. It returns
	// ErrCompleted when the attempt was already completed.
	Complete(ctx context.Context, attemptID uuid.UUID, total int, at time.Time) error
}

type repo struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &repo{db: db}
}

func (r *repo) Attempt(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	q, args := query.NewBuilder(attemptProjection, attemptSort).
		WhereEquals("ID", id).
		Build()

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAttempt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &a, nil
}

func (r *repo) Exam(ctx context.Context, id uuid.UUID) (*Exam, error) {
	q, args := query.NewBuilder(examProjection, examSort).
		WhereEquals("ID", id).
		Build()

	e, err := repository.QueryOne(ctx, r.db, q, args, scanExam)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &e, nil
}

func (r *repo) Questions(ctx context.Context, examID uuid.UUID) ([]Question, error) {
	q, args := query.NewBuilder(questionProjection, questionSort).
		WhereEquals("ExamID", examID).
		Build()

	questions, err := repository.QueryMany(ctx, r.db, q, args, scanQuestion)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	return questions, nil
}

func (r *repo) Question(ctx context.Context, examID, questionID uuid.UUID) (*Question, error) {
	q, args := query.NewBuilder(questionProjection, questionSort).
		WhereEquals("ID", questionID).
		WhereEquals("ExamID", examID).
		Build()

	question, err := repository.QueryOne(ctx, r.db, q, args, scanQuestion)
	if err != nil {
		return nil, repository.MapError(err, ErrQuestionNotFound, ErrQuestionNotFound)
	}
	return &question, nil
}

func (r *repo) Answers(ctx context.Context, attemptID uuid.UUID) ([]Answer, error) {
	q, args := query.NewBuilder(answerProjection, answerSort).
		WhereEquals("AttemptID", attemptID).
		Build()

	answers, err := repository.QueryMany(ctx, r.db, q, args, scanAnswer)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	return answers, nil
}

func (r *repo) Draft(ctx context.Context, attemptID, questionID uuid.UUID) (*Answer, error) {
	insert := `
		INSERT INTO answers (attempt_id, question_id)
		VALUES ($1, $2)
		ON CONFLICT (attempt_id, question_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, insert, attemptID, questionID); err != nil {
		return nil, repository.MapError(fmt.Errorf("create draft: %w", err), ErrQuestionNotFound, ErrQuestionNotFound)
	}

	q, args := query.NewBuilder(answerProjection, answerSort).
		WhereEquals("AttemptID", attemptID).
		WhereEquals("QuestionID", questionID).
		Build()

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAnswer)
	if err != nil {
		return nil, repository.MapError(err, ErrQuestionNotFound, ErrQuestionNotFound)
	}
	return &a, nil
}

func (r *repo) Append(ctx context.Context, attemptID, questionID uuid.UUID, text string) (*Answer, error) {
	q := `
		INSERT INTO answers (attempt_id, question_id, spoken_text)
		VALUES ($1, $2, $3)
		ON CONFLICT (attempt_id, question_id) DO UPDATE
		SET spoken_text = CASE
			WHEN answers.spoken_text = '' THEN EXCLUDED.spoken_text
			ELSE answers.spoken_text || ' ' || EXCLUDED.spoken_text
		END
		WHERE answers.finalized = FALSE
		RETURNING ` + answerReturning

	a, err := repository.QueryOne(ctx, r.db, q, []any{attemptID, questionID, text}, scanAnswer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFinalized
	}
	if err != nil {
		return nil, repository.MapError(err, ErrQuestionNotFound, ErrQuestionNotFound)
	}
	return &a, nil
}

func (r *repo) Finalize(ctx context.Context, attemptID, questionID uuid.UUID, g Grade) (*Answer, error) {
	q := `
		INSERT INTO answers (attempt_id, question_id, spoken_text, audio_key, similarity_score, points_awarded, finalized)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (attempt_id, question_id) DO UPDATE
		SET spoken_text = EXCLUDED.spoken_text,
			audio_key = COALESCE(EXCLUDED.audio_key, answers.audio_key),
			similarity_score = EXCLUDED.similarity_score,
			points_awarded = EXCLUDED.points_awarded,
			finalized = TRUE
		RETURNING ` + answerReturning

	args := []any{attemptID, questionID, g.SpokenText, g.AudioKey, g.Similarity, g.Points}
	a, err := repository.QueryOne(ctx, r.db, q, args, scanAnswer)
	if err != nil {
		return nil, repository.MapError(err, ErrQuestionNotFound, ErrQuestionNotFound)
	}
	return &a, nil
}

func (r *repo) Complete(ctx context.Context, attemptID uuid.UUID, total int, at time.Time) error {
	q := `
		UPDATE attempts
		SET status = $2, total_score = $3, completed_at = $4
		WHERE id = $1 AND status <> $2`

	err := repository.ExecExpectOne(ctx, r.db, q, attemptID, StatusCompleted, total, at)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCompleted
	}
	return err
}
