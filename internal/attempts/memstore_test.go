package attempts_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/internal/attempts"
)

// memStore is an in-memory attempts.Store with the same semantics as the
// Postgres store.
type memStore struct {
	mu        sync.Mutex
	attempts  map[uuid.UUID]*attempts.Attempt
	exams     map[uuid.UUID]*attempts.Exam
	questions map[uuid.UUID][]attempts.Question
	answers   map[[2]uuid.UUID]*attempts.Answer
}

func newMemStore() *memStore {
	return &memStore{
		attempts:  make(map[uuid.UUID]*attempts.Attempt),
		exams:     make(map[uuid.UUID]*attempts.Exam),
		questions: make(map[uuid.UUID][]attempts.Question),
		answers:   make(map[[2]uuid.UUID]*attempts.Answer),
	}
}

func (m *memStore) Attempt(_ context.Context, id uuid.UUID) (*attempts.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, attempts.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Exam(_ context.Context, id uuid.UUID) (*attempts.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return nil, attempts.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) Questions(_ context.Context, examID uuid.UUID) ([]attempts.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qs := slices.Clone(m.questions[examID])
	slices.SortFunc(qs, func(a, b attempts.Question) int { return a.Order - b.Order })
	return qs, nil
}

func (m *memStore) Question(_ context.Context, examID, questionID uuid.UUID) (*attempts.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questions[examID] {
		if q.ID == questionID {
			cp := q
			return &cp, nil
		}
	}
	return nil, attempts.ErrQuestionNotFound
}

func (m *memStore) Answers(_ context.Context, attemptID uuid.UUID) ([]attempts.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attempts.Answer
	for key, a := range m.answers {
		if key[0] == attemptID {
			out = append(out, *a)
		}
	}
	slices.SortFunc(out, func(a, b attempts.Answer) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (m *memStore) draft(attemptID, questionID uuid.UUID) *attempts.Answer {
	key := [2]uuid.UUID{attemptID, questionID}
	a, ok := m.answers[key]
	if !ok {
		a = &attempts.Answer{
			ID:         uuid.New(),
			AttemptID:  attemptID,
			QuestionID: questionID,
			CreatedAt:  time.Now().Add(time.Duration(len(m.answers)) * time.Millisecond),
		}
		m.answers[key] = a
	}
	return a
}

func (m *memStore) Draft(_ context.Context, attemptID, questionID uuid.UUID) (*attempts.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.draft(attemptID, questionID)
	return &cp, nil
}

func (m *memStore) Append(_ context.Context, attemptID, questionID uuid.UUID, text string) (*attempts.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.draft(attemptID, questionID)
	if a.Finalized {
		return nil, attempts.ErrFinalized
	}
	if a.SpokenText == "" {
		a.SpokenText = text
	} else {
		a.SpokenText += " " + text
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Finalize(_ context.Context, attemptID, questionID uuid.UUID, g attempts.Grade) (*attempts.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.draft(attemptID, questionID)
	a.SpokenText = g.SpokenText
	if g.AudioKey != nil {
		a.AudioKey = g.AudioKey
	}
	sim, pts := g.Similarity, g.Points
	a.SimilarityScore = &sim
	a.PointsAwarded = &pts
	a.Finalized = true
	cp := *a
	return &cp, nil
}

func (m *memStore) Complete(_ context.Context, attemptID uuid.UUID, total int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return attempts.ErrNotFound
	}
	if a.Status == attempts.StatusCompleted {
		return attempts.ErrCompleted
	}
	a.Status = attempts.StatusCompleted
	a.TotalScore = &total
	a.CompletedAt = &at
	return nil
}

// fixture seeds one exam with two questions and one attempt.
type fixture struct {
	store    *memStore
	student  uuid.UUID
	attempt  uuid.UUID
	exam     uuid.UUID
	q1, q2   uuid.UUID
	intruder uuid.UUID
}

func seed() *fixture {
	f := &fixture{
		store:    newMemStore(),
		student:  uuid.New(),
		attempt:  uuid.New(),
		exam:     uuid.New(),
		q1:       uuid.New(),
		q2:       uuid.New(),
		intruder: uuid.New(),
	}

	f.store.exams[f.exam] = &attempts.Exam{
		ID: f.exam, Title: "Sample Exam 1", Description: "This is a test exam", DurationMinutes: 30,
	}
	f.store.questions[f.exam] = []attempts.Question{
		{ID: f.q2, ExamID: f.exam, QuestionText: "Name the largest planet in our solar system.", ExpectedAnswer: "Jupiter", Points: 10, Order: 2},
		{ID: f.q1, ExamID: f.exam, QuestionText: "What is the capital of France?", ExpectedAnswer: "Paris", Points: 10, Order: 1},
	}
	f.store.attempts[f.attempt] = &attempts.Attempt{
		ID: f.attempt, ExamID: f.exam, StudentID: f.student,
		StartedAt: time.Now(), Status: attempts.StatusInProgress,
	}
	return f
}
