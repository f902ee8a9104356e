package attempts

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/internal/scoring"
	"github.com/JaimeStill/speakeval/internal/speech"
	"github.com/JaimeStill/speakeval/pkg/storage"
)

type Info struct {
	AttemptID uuid.UUID      `json:"attempt_id"`
	Exam      Exam           `json:"exam"`
	Questions []QuestionView `json:"questions"`
	StartedAt time.Time      `json:"started_at"`
	Status    Status         `json:"status"`
}

type Current struct {
	NextQuestion *QuestionView `json:"next_question"`
}

type ResultItem struct {
	QuestionID      uuid.UUID `json:"question_id"`
	QuestionText    string    `json:"question_text"`
	SpokenText      string    `json:"spoken_text"`
	PointsAwarded   int       `json:"points_awarded"`
	IsCorrect       bool      `json:"is_correct"`
	SimilarityScore float64   `json:"similarity_score"`
}

type Results struct {
	AttemptID  uuid.UUID    `json:"attempt_id"`
	ExamID     uuid.UUID    `json:"exam_id"`
	ExamTitle  string       `json:"exam_title"`
	TotalScore int          `json:"total_score"`
	Status     Status       `json:"status"`
	Breakdown  []ResultItem `json:"breakdown"`
}

type Evaluation struct {
	SpokenText      string  `json:"spoken_text"`
	SimilarityScore float64 `json:"similarity_score"`
	PointsAwarded   int     `json:"points_awarded"`
	MaxPoints       int     `json:"max_points"`
	IsCorrect       bool    `json:"is_correct"`
}

type Advance struct {
	SpokenText      string        `json:"spoken_text"`
	SimilarityScore float64       `json:"similarity_score"`
	PointsAwarded   int           `json:"points_awarded"`
	IsCorrect       bool          `json:"is_correct"`
	NextQuestion    *QuestionView `json:"next_question"`
}

type Skipped struct {
	Message       string        `json:"message"`
	PointsAwarded int           `json:"points_awarded"`
	NextQuestion  *QuestionView `json:"next_question"`
}

type TranscriptUpdate struct {
	Message           string `json:"message"`
	CurrentTranscript string `json:"current_transcript"`
}

type Completion struct {
	TotalScore int    `json:"total_score"`
	Status     Status `json:"status"`
}

type EndItem struct {
	QuestionID    uuid.UUID `json:"question_id"`
	SpokenText    string    `json:"spoken_text"`
	PointsAwarded int       `json:"points_awarded"`
}

type EndResult struct {
	Completion
	Breakdown []EndItem `json:"breakdown"`
}

// System runs exam attempts on behalf of the authenticated student. Every
// operation returns ErrForbidden when the attempt belongs to someone else.
type System interface {
	Info(ctx context.Context, userID, attemptID uuid.UUID) (*Info, error)

	// Current returns the first question, by order, without a finalized answer.
	Current(ctx context.Context, userID, attemptID uuid.UUID) (*Current, error)

	Results(ctx context.Context, userID, attemptID uuid.UUID) (*Results, error)

	// Evaluate grades text and finalizes the answer.
	Evaluate(ctx context.Context, userID uuid.UUID, cmd EvaluateCommand) (*Evaluation, error)

	// Submit stores audio, transcribes it, then grades and finalizes.
	Submit(ctx context.Context, userID uuid.UUID, cmd SubmitCommand) (*Evaluation, error)

	AppendTranscript(ctx context.Context, userID uuid.UUID, cmd AppendCommand) (*TranscriptUpdate, error)

	// Skip finalizes the answer with no text and zero points.
	Skip(ctx context.Context, userID uuid.UUID, ref AnswerRef) (*Skipped, error)

	// MoveNext grades the draft (or provided text) unless the answer is
	// already final, then returns the next question.
	MoveNext(ctx context.Context, userID uuid.UUID, cmd MoveNextCommand) (*Advance, error)

	// Complete totals finalized answers and closes the attempt.
	Complete(ctx context.Context, userID, attemptID uuid.UUID) (*Completion, error)

	// End is Complete plus the per-answer breakdown.
	End(ctx context.Context, userID, attemptID uuid.UUID) (*EndResult, error)
}

type attemptSystem struct {
	store       Store
	scorer      *scoring.Scorer
	transcriber speech.Transcriber
	audio       storage.System
	logger      *slog.Logger
	now         func() time.Time
}

func New(store Store, scorer *scoring.Scorer, transcriber speech.Transcriber, audio storage.System, logger *slog.Logger) System {
	return &attemptSystem{
		store:       store,
		scorer:      scorer,
		transcriber: transcriber,
		audio:       audio,
		logger:      logger.With("system", "attempts"),
		now:         time.Now,
	}
}

// owned loads the attempt and verifies the caller owns it.
func (s *attemptSystem) owned(ctx context.Context, userID, attemptID uuid.UUID) (*Attempt, error) {
	if attemptID == uuid.Nil {
		return nil, ErrMissingFields
	}
	a, err := s.store.Attempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.StudentID != userID {
		return nil, ErrForbidden
	}
	return a, nil
}

// active is owned plus a check that the attempt still accepts answers.
func (s *attemptSystem) active(ctx context.Context, userID, attemptID uuid.UUID) (*Attempt, error) {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCompleted {
		return nil, ErrCompleted
	}
	return a, nil
}

func (s *attemptSystem) question(ctx context.Context, userID uuid.UUID, ref AnswerRef) (*Attempt, *Question, error) {
	if err := ref.Validate(); err != nil {
		return nil, nil, err
	}
	a, err := s.active(ctx, userID, ref.AttemptID)
	if err != nil {
		return nil, nil, err
	}
	q, err := s.store.Question(ctx, a.ExamID, ref.QuestionID)
	if err != nil {
		return nil, nil, err
	}
	return a, q, nil
}

func (s *attemptSystem) Info(ctx context.Context, userID, attemptID uuid.UUID) (*Info, error) {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	exam, err := s.store.Exam(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}

	questions, err := s.store.Questions(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, len(questions))
	for i := range questions {
		views[i] = *questions[i].View()
	}

	return &Info{
		AttemptID: a.ID,
		Exam:      *exam,
		Questions: views,
		StartedAt: a.StartedAt,
		Status:    a.Status,
	}, nil
}

func (s *attemptSystem) Current(ctx context.Context, userID, attemptID uuid.UUID) (*Current, error) {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	questions, err := s.store.Questions(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answersByQuestion(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	for i := range questions {
		if ans, ok := answers[questions[i].ID]; ok && ans.Finalized {
			continue
		}
		return &Current{NextQuestion: questions[i].View()}, nil
	}
	return &Current{}, nil
}

func (s *attemptSystem) Results(ctx context.Context, userID, attemptID uuid.UUID) (*Results, error) {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	exam, err := s.store.Exam(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.Questions(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answersByQuestion(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	result := &Results{
		AttemptID: a.ID,
		ExamID:    exam.ID,
		ExamTitle: exam.Title,
		Status:    a.Status,
		Breakdown: make([]ResultItem, 0, len(questions)),
	}

	for _, q := range questions {
		item := ResultItem{QuestionID: q.ID, QuestionText: q.QuestionText}
		if ans, ok := answers[q.ID]; ok && ans.Finalized {
			item.SpokenText = ans.SpokenText
			item.PointsAwarded = ans.Points()
			item.SimilarityScore = ans.Similarity()
		}
		item.IsCorrect = item.PointsAwarded == q.Points
		result.TotalScore += item.PointsAwarded
		result.Breakdown = append(result.Breakdown, item)
	}

	if a.TotalScore != nil {
		result.TotalScore = *a.TotalScore
	}
	return result, nil
}

func (s *attemptSystem) Evaluate(ctx context.Context, userID uuid.UUID, cmd EvaluateCommand) (*Evaluation, error) {
	_, q, err := s.question(ctx, userID, cmd.AnswerRef)
	if err != nil {
		return nil, err
	}
	return s.grade(ctx, cmd.AnswerRef, q, cmd.SpokenText, nil)
}

func (s *attemptSystem) Submit(ctx context.Context, userID uuid.UUID, cmd SubmitCommand) (*Evaluation, error) {
	if len(cmd.Audio) == 0 {
		return nil, fmt.Errorf("%w: no audio file provided", ErrAudio)
	}

	_, q, err := s.question(ctx, userID, cmd.AnswerRef)
	if err != nil {
		return nil, err
	}

	key := audioKey(cmd.AnswerRef, cmd.ContentType)
	if err := s.audio.Store(ctx, key, cmd.Audio); err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	text, err := s.transcriber.Transcribe(ctx, cmd.Audio, cmd.ContentType)
	if err != nil {
		s.logger.Warn("transcription failed", "attempt_id", cmd.AttemptID, "question_id", cmd.QuestionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAudio, err)
	}

	return s.grade(ctx, cmd.AnswerRef, q, text, &key)
}

func (s *attemptSystem) grade(ctx context.Context, ref AnswerRef, q *Question, text string, audioKey *string) (*Evaluation, error) {
	r, err := s.scorer.Score(ctx, text, q.ExpectedAnswer, q.Points)
	if err != nil {
		s.logger.Warn("scoring failed", "attempt_id", ref.AttemptID, "question_id", ref.QuestionID, "error", err)
		return nil, err
	}

	_, err = s.store.Finalize(ctx, ref.AttemptID, ref.QuestionID, Grade{
		SpokenText: text,
		AudioKey:   audioKey,
		Similarity: r.Similarity,
		Points:     r.Points,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("answer graded",
		"attempt_id", ref.AttemptID,
		"question_id", ref.QuestionID,
		"similarity", r.Similarity,
		"points", r.Points,
	)

	return &Evaluation{
		SpokenText:      text,
		SimilarityScore: r.Similarity,
		PointsAwarded:   r.Points,
		MaxPoints:       r.MaxPoints,
		IsCorrect:       r.IsCorrect,
	}, nil
}

func (s *attemptSystem) AppendTranscript(ctx context.Context, userID uuid.UUID, cmd AppendCommand) (*TranscriptUpdate, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return nil, ErrMissingFields
	}

	if _, _, err := s.question(ctx, userID, cmd.AnswerRef); err != nil {
		return nil, err
	}

	ans, err := s.store.Append(ctx, cmd.AttemptID, cmd.QuestionID, text)
	if err != nil {
		return nil, err
	}

	return &TranscriptUpdate{
		Message:           "Transcript appended",
		CurrentTranscript: ans.SpokenText,
	}, nil
}

func (s *attemptSystem) Skip(ctx context.Context, userID uuid.UUID, ref AnswerRef) (*Skipped, error) {
	a, q, err := s.question(ctx, userID, ref)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Finalize(ctx, ref.AttemptID, ref.QuestionID, Grade{}); err != nil {
		return nil, err
	}

	next, err := s.next(ctx, a.ExamID, q.Order)
	if err != nil {
		return nil, err
	}

	s.logger.Info("question skipped", "attempt_id", ref.AttemptID, "question_id", ref.QuestionID)
	return &Skipped{Message: "Question skipped", NextQuestion: next}, nil
}

func (s *attemptSystem) MoveNext(ctx context.Context, userID uuid.UUID, cmd MoveNextCommand) (*Advance, error) {
	a, q, err := s.question(ctx, userID, cmd.AnswerRef)
	if err != nil {
		return nil, err
	}

	draft, err := s.store.Draft(ctx, cmd.AttemptID, cmd.QuestionID)
	if err != nil {
		return nil, err
	}

	var text string
	switch {
	case draft.Finalized:
		text = draft.SpokenText
	case cmd.SpokenText != nil:
		text = strings.TrimSpace(*cmd.SpokenText)
	default:
		text = strings.TrimSpace(draft.SpokenText)
	}

	var r scoring.Result
	if text != "" {
		r, err = s.scorer.Score(ctx, text, q.ExpectedAnswer, q.Points)
		if err != nil {
			return nil, err
		}
	} else {
		r = scoring.Result{MaxPoints: q.Points, IsCorrect: q.Points == 0}
	}

	_, err = s.store.Finalize(ctx, cmd.AttemptID, cmd.QuestionID, Grade{
		SpokenText: text,
		AudioKey:   draft.AudioKey,
		Similarity: r.Similarity,
		Points:     r.Points,
	})
	if err != nil {
		return nil, err
	}

	next, err := s.next(ctx, a.ExamID, q.Order)
	if err != nil {
		return nil, err
	}

	return &Advance{
		SpokenText:      text,
		SimilarityScore: r.Similarity,
		PointsAwarded:   r.Points,
		IsCorrect:       r.IsCorrect,
		NextQuestion:    next,
	}, nil
}

func (s *attemptSystem) Complete(ctx context.Context, userID, attemptID uuid.UUID) (*Completion, error) {
	c, _, err := s.complete(ctx, userID, attemptID)
	return c, err
}

func (s *attemptSystem) End(ctx context.Context, userID, attemptID uuid.UUID) (*EndResult, error) {
	c, answers, err := s.complete(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	breakdown := make([]EndItem, 0, len(answers))
	for _, ans := range answers {
		if !ans.Finalized {
			continue
		}
		breakdown = append(breakdown, EndItem{
			QuestionID:    ans.QuestionID,
			SpokenText:    ans.SpokenText,
			PointsAwarded: ans.Points(),
		})
	}

	return &EndResult{Completion: *c, Breakdown: breakdown}, nil
}

func (s *attemptSystem) complete(ctx context.Context, userID, attemptID uuid.UUID) (*Completion, []Answer, error) {
	a, err := s.active(ctx, userID, attemptID)
	if err != nil {
		return nil, nil, err
	}

	answers, err := s.store.Answers(ctx, a.ID)
	if err != nil {
		return nil, nil, err
	}

	total := 0
	for i := range answers {
		total += answers[i].Points()
	}

	if err := s.store.Complete(ctx, a.ID, total, s.now().UTC()); err != nil {
		return nil, nil, err
	}

	s.logger.Info("attempt completed", "attempt_id", a.ID, "total_score", total)
	return &Completion{TotalScore: total, Status: StatusCompleted}, answers, nil
}

// next returns the question following order, or nil after the last one.
func (s *attemptSystem) next(ctx context.Context, examID uuid.UUID, order int) (*QuestionView, error) {
	questions, err := s.store.Questions(ctx, examID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].Order > order {
			return questions[i].View(), nil
		}
	}
	return nil, nil
}

func (s *attemptSystem) answersByQuestion(ctx context.Context, attemptID uuid.UUID) (map[uuid.UUID]*Answer, error) {
	answers, err := s.store.Answers(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	m := make(map[uuid.UUID]*Answer, len(answers))
	for i := range answers {
		m[answers[i].QuestionID] = &answers[i]
	}
	return m, nil
}

var audioExtensions = map[string]string{
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/wave":  ".wav",
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
}

// audioKey is the storage key for an answer recording:
// attempts/<attempt id>/<question id><ext>.
func audioKey(ref AnswerRef, contentType string) string {
	ext := ".bin"
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if e, ok := audioExtensions[mt]; ok {
			ext = e
		}
	}
	return fmt.Sprintf("attempts/%s/%s%s", ref.AttemptID, ref.QuestionID, ext)
}
