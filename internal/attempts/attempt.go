// Package attempts runs an exam attempt: drafting answers from streamed
// transcript chunks, grading and finalizing them, navigating between
// questions and totalling the score.
package attempts

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFlagged    Status = "flagged"
)

type Attempt struct {
	ID          uuid.UUID  `json:"id"`
	ExamID      uuid.UUID  `json:"exam_id"`
	StudentID   uuid.UUID  `json:"student_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TotalScore  *int       `json:"total_score,omitempty"`
	Status      Status     `json:"status"`
}

// Answer is a student's response to one question. A draft accumulates
// transcript text until it is finalized with a grade.
type Answer struct {
	ID              uuid.UUID `json:"id"`
	AttemptID       uuid.UUID `json:"attempt_id"`
	QuestionID      uuid.UUID `json:"question_id"`
	SpokenText      string    `json:"spoken_text"`
	AudioKey        *string   `json:"audio_key,omitempty"`
	SimilarityScore *float64  `json:"similarity_score,omitempty"`
	PointsAwarded   *int      `json:"points_awarded,omitempty"`
	Finalized       bool      `json:"finalized"`
	CreatedAt       time.Time `json:"created_at"`
}

// Points returns the awarded points, treating ungraded answers as 0.
func (a *Answer) Points() int {
	if a == nil || !a.Finalized || a.PointsAwarded == nil {
		return 0
	}
	return *a.PointsAwarded
}

func (a *Answer) Similarity() float64 {
	if a == nil || !a.Finalized || a.SimilarityScore == nil {
		return 0
	}
	return *a.SimilarityScore
}

// Exam is the exam header as seen from an attempt.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Question carries the expected answer for grading. It is never returned
// to clients directly; see QuestionView.
type Question struct {
	ID             uuid.UUID
	ExamID         uuid.UUID
	QuestionText   string
	ExpectedAnswer string
	Points         int
	Order          int
}

func (q *Question) View() *QuestionView {
	if q == nil {
		return nil
	}
	return &QuestionView{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Points:       q.Points,
		Order:        q.Order,
	}
}

type QuestionView struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	Points       int       `json:"points"`
	Order        int       `json:"order"`
}

// Grade is what finalizing an answer records.
type Grade struct {
	SpokenText string
	AudioKey   *string
	Similarity float64
	Points     int
}
