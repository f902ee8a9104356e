// Package exams manages oral exams, their ordered questions, and the
// creation of attempts when a student starts an exam.
package exams

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPoints is awarded for a question when none is given.
const DefaultPoints = 10

type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	EducatorID      uuid.UUID `json:"educator_id"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

type Question struct {
	ID             uuid.UUID `json:"id"`
	ExamID         uuid.UUID `json:"exam_id"`
	QuestionText   string    `json:"question_text"`
	ExpectedAnswer string    `json:"expected_answer,omitempty"`
	Points         int       `json:"points"`
	Order          int       `json:"order"`
}

type ExamWithQuestions struct {
	Exam
	Questions []Question `json:"questions"`
}

// Summary is the exam header returned when an attempt starts.
type Summary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
}

type StartResult struct {
	AttemptID uuid.UUID  `json:"attempt_id"`
	Exam      Summary    `json:"exam"`
	Questions []Question `json:"questions"`
}

type CreateQuestion struct {
	QuestionText   string `json:"question_text"`
	ExpectedAnswer string `json:"expected_answer"`
	Points         int    `json:"points"`
}

type CreateExamCommand struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	DurationMinutes int              `json:"duration_minutes"`
	Questions       []CreateQuestion `json:"questions"`
}

type Created struct {
	Message string    `json:"message"`
	ExamID  uuid.UUID `json:"exam_id"`
}

// Normalize trims text fields and fills default points.
func (c *CreateExamCommand) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	for i := range c.Questions {
		q := &c.Questions[i]
		q.QuestionText = strings.TrimSpace(q.QuestionText)
		q.ExpectedAnswer = strings.TrimSpace(q.ExpectedAnswer)
		if q.Points == 0 {
			q.Points = DefaultPoints
		}
	}
}

func (c *CreateExamCommand) Validate() error {
	if c.Title == "" || c.DurationMinutes <= 0 {
		return ErrMissingFields
	}
	if len(c.Questions) == 0 {
		return ErrNoQuestions
	}
	for _, q := range c.Questions {
		if q.QuestionText == "" || q.ExpectedAnswer == "" || q.Points < 0 {
			return ErrMissingFields
		}
	}
	return nil
}

// StripAnswers removes expected answers so the exam can be shown to a
// student.
func StripAnswers(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.ExpectedAnswer = ""
		out[i] = q
	}
	return out
}
