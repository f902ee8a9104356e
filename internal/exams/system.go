package exams

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/internal/users"
	"github.com/JaimeStill/speakeval/pkg/pagination"
)

// System defines exam authoring and access. Every operation is evaluated
// on behalf of viewer.
type System interface {
	// List returns the viewer's own exams for educators and active exams
	// for students.
	List(ctx context.Context, viewer *users.User, page pagination.PageRequest) (*pagination.PageResult[Exam], error)

	Create(ctx context.Context, viewer *users.User, cmd CreateExamCommand) (*Created, error)

	// Find returns the exam with its questions. Expected answers are only
	// included for the owning educator.
	Find(ctx context.Context, viewer *users.User, id uuid.UUID) (*ExamWithQuestions, error)

	// Start opens a new attempt for viewer.
	Start(ctx context.Context, viewer *users.User, id uuid.UUID) (*StartResult, error)
}
