package exams

import (
	"github.com/JaimeStill/speakeval/pkg/query"
	"github.com/JaimeStill/speakeval/pkg/repository"
)

var examProjection = query.
	NewProjectionMap("public", "exams", "e").
	Project("id", "ID").
	Project("title", "Title").
	Project("description", "Description").
	Project("educator_id", "EducatorID").
	Project("duration_minutes", "DurationMinutes").
	Project("is_active", "IsActive").
	Project("created_at", "CreatedAt")

var questionProjection = query.
	NewProjectionMap("public", "questions", "q").
	Project("id", "ID").
	Project("exam_id", "ExamID").
	Project("question_text", "QuestionText").
	Project("expected_answer", "ExpectedAnswer").
	Project("points", "Points").
	Project(`"order"`, "Order")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

var questionSort = query.SortField{Field: "Order"}

func scanExam(s repository.Scanner) (Exam, error) {
	var e Exam
	err := s.Scan(
		&e.ID, &e.Title, &e.Description, &e.EducatorID,
		&e.DurationMinutes, &e.IsActive, &e.CreatedAt,
	)
	return e, err
}

func scanQuestion(s repository.Scanner) (Question, error) {
	var q Question
	err := s.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.ExpectedAnswer, &q.Points, &q.Order)
	return q, err
}

// scope restricts a listing to what viewer may see.
type scope struct {
	EducatorID any
	ActiveOnly bool
}

func (s scope) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("EducatorID", s.EducatorID)
	if s.ActiveOnly {
		b.WhereEquals("IsActive", true)
	}
	return b
}
