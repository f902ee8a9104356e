package attempts

import (
	"github.com/JaimeStill/speakeval/pkg/query"
	"github.com/JaimeStill/speakeval/pkg/repository"
)

var attemptProjection = query.
	NewProjectionMap("public", "attempts", "a").
	Project("id", "ID").
	Project("exam_id", "ExamID").
	Project("student_id", "StudentID").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt").
	Project("total_score", "TotalScore").
	Project("status", "Status")

var answerProjection = query.
	NewProjectionMap("public", "answers", "ans").
	Project("id", "ID").
	Project("attempt_id", "AttemptID").
	Project("question_id", "QuestionID").
	Project("spoken_text", "SpokenText").
	Project("audio_key", "AudioKey").
	Project("similarity_score", "SimilarityScore").
	Project("points_awarded", "PointsAwarded").
	Project("finalized", "Finalized").
	Project("created_at", "CreatedAt")

var examProjection = query.
	NewProjectionMap("public", "exams", "e").
	Project("id", "ID").
	Project("title", "Title").
	Project("description", "Description").
	Project("duration_minutes", "DurationMinutes")

var questionProjection = query.
	NewProjectionMap("public", "questions", "q").
	Project("id", "ID").
	Project("exam_id", "ExamID").
	Project("question_text", "QuestionText").
	Project("expected_answer", "ExpectedAnswer").
	Project("points", "Points").
	Project(`"order"`, "Order")

// answerReturning lists answer columns for RETURNING clauses, which cannot
// use the table alias.
const answerReturning = `id, attempt_id, question_id, spoken_text, audio_key,
	similarity_score, points_awarded, finalized, created_at`

var (
	attemptSort  = query.SortField{Field: "StartedAt"}
	answerSort   = query.SortField{Field: "CreatedAt"}
	examSort     = query.SortField{Field: "Title"}
	questionSort = query.SortField{Field: "Order"}
)

func scanAttempt(s repository.Scanner) (Attempt, error) {
	var a Attempt
	err := s.Scan(
		&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt,
		&a.CompletedAt, &a.TotalScore, &a.Status,
	)
	return a, err
}

func scanAnswer(s repository.Scanner) (Answer, error) {
	var a Answer
	err := s.Scan(
		&a.ID, &a.AttemptID, &a.QuestionID, &a.SpokenText, &a.AudioKey,
		&a.SimilarityScore, &a.PointsAwarded, &a.Finalized, &a.CreatedAt,
	)
	return a, err
}

func scanExam(s repository.Scanner) (Exam, error) {
	var e Exam
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.DurationMinutes)
	return e, err
}

func scanQuestion(s repository.Scanner) (Question, error) {
	var q Question
	err := s.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.ExpectedAnswer, &q.Points, &q.Order)
	return q, err
}
