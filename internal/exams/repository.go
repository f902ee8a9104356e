package exams

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/internal/users"
	"github.com/JaimeStill/speakeval/pkg/pagination"
	"github.com/JaimeStill/speakeval/pkg/query"
	"github.com/JaimeStill/speakeval/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "exams"),
		pagination: pagination,
	}
}

func (r *repo) List(ctx context.Context, viewer *users.User, page pagination.PageRequest) (*pagination.PageResult[Exam], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(examProjection, defaultSort).
		WhereSearch(page.Search, "Title", "Description")

	s := scope{ActiveOnly: true}
	if viewer.IsEducator() {
		s = scope{EducatorID: viewer.ID}
	}
	s.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count exams: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	exams, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanExam)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}

	result := pagination.NewPageResult(exams, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Create(ctx context.Context, viewer *users.User, cmd CreateExamCommand) (*Created, error) {
	if !viewer.IsEducator() {
		return nil, ErrForbidden
	}

	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	examSQL := `
		INSERT INTO exams (title, description, educator_id, duration_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	questionSQL := `
		INSERT INTO questions (exam_id, question_text, expected_answer, points, "order")
		VALUES ($1, $2, $3, $4, $5)`

	id, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (uuid.UUID, error) {
		var id uuid.UUID
		if err := tx.QueryRowContext(ctx, examSQL, cmd.Title, cmd.Description, viewer.ID, cmd.DurationMinutes).Scan(&id); err != nil {
			return uuid.Nil, err
		}

		for i, q := range cmd.Questions {
			if _, err := tx.ExecContext(ctx, questionSQL, id, q.QuestionText, q.ExpectedAnswer, q.Points, i+1); err != nil {
				return uuid.Nil, fmt.Errorf("insert question %d: %w", i+1, err)
			}
		}
		return id, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("exam created", "id", id, "educator_id", viewer.ID, "questions", len(cmd.Questions))
	return &Created{Message: "Exam created successfully", ExamID: id}, nil
}

func (r *repo) Find(ctx context.Context, viewer *users.User, id uuid.UUID) (*ExamWithQuestions, error) {
	exam, err := r.findExam(ctx, id)
	if err != nil {
		return nil, err
	}

	owner := exam.EducatorID == viewer.ID
	if !owner && !exam.IsActive {
		return nil, ErrNotFound
	}

	questions, err := r.questions(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owner {
		questions = StripAnswers(questions)
	}

	return &ExamWithQuestions{Exam: *exam, Questions: questions}, nil
}

func (r *repo) Start(ctx context.Context, viewer *users.User, id uuid.UUID) (*StartResult, error) {
	exam, err := r.findExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exam.IsActive {
		return nil, ErrInactive
	}

	questions, err := r.questions(ctx, id)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO attempts (exam_id, student_id)
		VALUES ($1, $2)
		RETURNING id`

	var attemptID uuid.UUID
	if err := r.db.QueryRowContext(ctx, q, id, viewer.ID).Scan(&attemptID); err != nil {
		return nil, repository.MapError(fmt.Errorf("create attempt: %w", err), ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("attempt started", "attempt_id", attemptID, "exam_id", id, "student_id", viewer.ID)

	return &StartResult{
		AttemptID: attemptID,
		Exam: Summary{
			ID:              exam.ID,
			Title:           exam.Title,
			DurationMinutes: exam.DurationMinutes,
		},
		Questions: StripAnswers(questions),
	}, nil
}

func (r *repo) findExam(ctx context.Context, id uuid.UUID) (*Exam, error) {
	q, args := query.NewBuilder(examProjection, defaultSort).
		WhereEquals("ID", id).
		Build()

	exam, err := repository.QueryOne(ctx, r.db, q, args, scanExam)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &exam, nil
}

func (r *repo) questions(ctx context.Context, examID uuid.UUID) ([]Question, error) {
	q, args := query.NewBuilder(questionProjection, questionSort).
		WhereEquals("ExamID", examID).
		Build()

	questions, err := repository.QueryMany(ctx, r.db, q, args, scanQuestion)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	if questions == nil {
		questions = []Question{}
	}
	return questions, nil
}
