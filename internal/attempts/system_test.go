package attempts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/internal/attempts"
	"github.com/JaimeStill/speakeval/internal/scoring"
	"github.com/JaimeStill/speakeval/pkg/lifecycle"
	"github.com/JaimeStill/speakeval/pkg/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

func newAudioStore(t *testing.T) storage.System {
	t.Helper()
	sys, err := storage.New(&storage.Config{BasePath: t.TempDir()}, discardLogger())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if err := sys.Start(lifecycle.New()); err != nil {
		t.Fatalf("storage Start() error = %v", err)
	}
	return sys
}

func newSystem(t *testing.T, f *fixture, tr fakeTranscriber) (attempts.System, storage.System) {
	t.Helper()
	audio := newAudioStore(t)
	return attempts.New(f.store, scoring.New(scoring.DefaultThreshold), tr, audio, discardLogger()), audio
}

func ptr[T any](v T) *T { return &v }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		phrase string
		want   attempts.Command
	}{
		{"skip", attempts.CommandSkip},
		{"  Skip The Question ", attempts.CommandSkip},
		{"skip this question", attempts.CommandSkip},
		{"NEXT QUESTION", attempts.CommandNext},
		{"move next", attempts.CommandNext},
		{"move to the next question", attempts.CommandNext},
		{"move to next question", attempts.CommandNext},
		{"end exam", attempts.CommandEnd},
		{"end examination", attempts.CommandEnd},
		{"end the exam", attempts.CommandEnd},
		{"finish exam", attempts.CommandEnd},
		{"finish examination", attempts.CommandEnd},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, err := attempts.ParseCommand(tt.phrase)
			if err != nil {
				t.Fatalf("ParseCommand() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand() = %q, want %q", got, tt.want)
			}
		})
	}

	for _, phrase := range []string{"", "go back", "skip it please"} {
		if _, err := attempts.ParseCommand(phrase); !errors.Is(err, attempts.ErrUnknownCommand) {
			t.Errorf("ParseCommand(%q) error = %v, want ErrUnknownCommand", phrase, err)
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{attempts.ErrNotFound, http.StatusNotFound},
		{attempts.ErrQuestionNotFound, http.StatusNotFound},
		{attempts.ErrForbidden, http.StatusForbidden},
		{attempts.ErrCompleted, http.StatusConflict},
		{attempts.ErrFinalized, http.StatusConflict},
		{attempts.ErrMissingFields, http.StatusBadRequest},
		{attempts.ErrUnknownCommand, http.StatusBadRequest},
		{attempts.ErrAudio, http.StatusBadRequest},
		{scoring.ErrEmbedding, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := attempts.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSystem_InfoAndCurrent(t *testing.T) {
	f := seed()
	sys, _ := newSystem(t, f, fakeTranscriber{})
	ctx := context.Background()

	info, err := sys.Info(ctx, f.student, f.attempt)
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Exam.Description != "This is a test exam" || len(info.Questions) != 2 {
		t.Errorf("Info() = %+v", info)
	}
	if info.Questions[0].ID != f.q1 {
		t.Error("questions not ordered")
	}

	cur, err := sys.Current(ctx, f.student, f.attempt)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if cur.NextQuestion == nil || cur.NextQuestion.ID != f.q1 {
		t.Fatalf("Current() = %+v, want q1", cur.NextQuestion)
	}

	if _, err := sys.Evaluate(ctx, f.student, attempts.EvaluateCommand{
		AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}, SpokenText: "Paris",
	}); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	cur, _ = sys.Current(ctx, f.student, f.attempt)
	if cur.NextQuestion == nil || cur.NextQuestion.ID != f.q2 {
		t.Fatalf("Current() after q1 = %+v, want q2", cur.NextQuestion)
	}

	sys.Skip(ctx, f.student, attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q2})
	cur, _ = sys.Current(ctx, f.student, f.attempt)
	if cur.NextQuestion != nil {
		t.Errorf("Current() after all = %+v, want nil", cur.NextQuestion)
	}
}

func TestSystem_Ownership(t *testing.T) {
	f := seed()
	sys, _ := newSystem(t, f, fakeTranscriber{})
	ctx := context.Background()
	ref := attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}

	if _, err := sys.Info(ctx, f.intruder, f.attempt); !errors.Is(err, attempts.ErrForbidden) {
		t.Errorf("Info(intruder) error = %v, want ErrForbidden", err)
	}
	if _, err := sys.Skip(ctx, f.intruder, ref); !errors.Is(err, attempts.ErrForbidden) {
		t.Errorf("Skip(intruder) error = %v, want ErrForbidden", err)
	}
	if _, err := sys.Info(ctx, f.student, uuid.New()); !errors.Is(err, attempts.ErrNotFound) {
		t.Errorf("Info(unknown) error = %v, want ErrNotFound", err)
	}

	bad := attempts.AnswerRef{AttemptID: f.attempt, QuestionID: uuid.New()}
	if _, err := sys.Skip(ctx, f.student, bad); !errors.Is(err, attempts.ErrQuestionNotFound) {
		t.Errorf("Skip(unknown question) error = %v, want ErrQuestionNotFound", err)
	}
	if _, err := sys.Skip(ctx, f.student, attempts.AnswerRef{}); !errors.Is(err, attempts.ErrMissingFields) {
		t.Errorf("Skip(empty) error = %v, want ErrMissingFields", err)
	}
}

func TestSystem_Evaluate(t *testing.T) {
	f := seed()
	sys, _ := newSystem(t, f, fakeTranscriber{})
	ctx := context.Background()

	tests := []struct {
		text       string
		wantPoints int
		wantOK     bool
	}{
		{"Paris", 10, true},
		{"paris!", 10, true},
		{"London", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ev, err := sys.Evaluate(ctx, f.student, attempts.EvaluateCommand{
				AnswerRef:  attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1},
				SpokenText: tt.text,
			})
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if ev.PointsAwarded != tt.wantPoints || ev.IsCorrect != tt.wantOK || ev.MaxPoints != 10 {
				t.Errorf("Evaluate() = %+v", ev)
			}
		})
	}
}

type keywordEmbedder struct {
	err error
}

// Embed places every text mentioning a French city on one axis and
// everything else on another.
func (e keywordEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "paris") || strings.Contains(lower, "french capital") {
		return []float64{1, 0}, nil
	}
	return []float64{0, 1}, nil
}

func TestSystem_EvaluateWithEmbedder(t *testing.T) {
	f := seed()
	scorer := scoring.New(scoring.DefaultThreshold).WithEmbedder(keywordEmbedder{})
	sys := attempts.New(f.store, scorer, fakeTranscriber{}, newAudioStore(t), discardLogger())

	ev, err := sys.Evaluate(context.Background(), f.student, attempts.EvaluateCommand{
		AnswerRef:  attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1},
		SpokenText: "it is the French capital",
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if ev.PointsAwarded != 10 || !ev.IsCorrect {
		t.Errorf("Evaluate() = %+v, want full points", ev)
	}
}

func TestSystem_EvaluateEmbedderFailure(t *testing.T) {
	f := seed()
	scorer := scoring.New(scoring.DefaultThreshold).WithEmbedder(keywordEmbedder{err: errors.New("model offline")})
	sys := attempts.New(f.store, scorer, fakeTranscriber{}, newAudioStore(t), discardLogger())
	ctx := context.Background()

	_, err := sys.Evaluate(ctx, f.student, attempts.EvaluateCommand{
		AnswerRef:  attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1},
		SpokenText: "Paris",
	})
	if attempts.MapHTTPStatus(err) != http.StatusBadGateway {
		t.Fatalf("Evaluate() error = %v, want a bad gateway error", err)
	}

	cur, err := sys.Current(ctx, f.student, f.attempt)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if cur.NextQuestion == nil || cur.NextQuestion.ID != f.q1 {
		t.Errorf("a failed evaluation must leave q1 open, got %+v", cur.NextQuestion)
	}
}

func TestSystem_Submit(t *testing.T) {
	t.Run("stores audio and grades transcript", func(t *testing.T) {
		f := seed()
		sys, audio := newSystem(t, f, fakeTranscriber{text: "Jupiter"})
		ctx := context.Background()
		ref := attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q2}

		ev, err := sys.Submit(ctx, f.student, attempts.SubmitCommand{
			AnswerRef: ref, Audio: []byte("webm-bytes"), ContentType: "audio/webm;codecs=opus",
		})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if ev.SpokenText != "Jupiter" || ev.PointsAwarded != 10 {
			t.Errorf("Submit() = %+v", ev)
		}

		key := "attempts/" + f.attempt.String() + "/" + f.q2.String() + ".webm"
		data, err := audio.Retrieve(ctx, key)
		if err != nil {
			t.Fatalf("Retrieve(%q) error = %v", key, err)
		}
		if string(data) != "webm-bytes" {
			t.Errorf("stored audio = %q", data)
		}

		ans := f.store.answers[[2]uuid.UUID{f.attempt, f.q2}]
		if ans.AudioKey == nil || *ans.AudioKey != key {
			t.Errorf("AudioKey = %v, want %q", ans.AudioKey, key)
		}
	})

	t.Run("no audio", func(t *testing.T) {
		f := seed()
		sys, _ := newSystem(t, f, fakeTranscriber{text: "x"})
		_, err := sys.Submit(context.Background(), f.student, attempts.SubmitCommand{
			AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1},
		})
		if !errors.Is(err, attempts.ErrAudio) {
			t.Errorf("Submit() error = %v, want ErrAudio", err)
		}
	})

	t.Run("transcription failure", func(t *testing.T) {
		f := seed()
		sys, _ := newSystem(t, f, fakeTranscriber{err: errors.New("decoder crashed")})
		_, err := sys.Submit(context.Background(), f.student, attempts.SubmitCommand{
			AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1},
			Audio:     []byte("a"),
		})
		if !errors.Is(err, attempts.ErrAudio) {
			t.Errorf("Submit() error = %v, want ErrAudio", err)
		}
	})
}

func TestSystem_AppendTranscript(t *testing.T) {
	f := seed()
	sys, _ := newSystem(t, f, fakeTranscriber{})
	ctx := context.Background()
	ref := attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}

	for _, chunk := range []string{"  the capital ", "is", "Paris  "} {
		if _, err := sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{AnswerRef: ref, Text: chunk}); err != nil {
			t.Fatalf("AppendTranscript(%q) error = %v", chunk, err)
		}
	}

	upd, err := sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{AnswerRef: ref, Text: "indeed"})
	if err != nil {
		t.Fatalf("AppendTranscript() error = %v", err)
	}
	if upd.CurrentTranscript != "the capital is Paris indeed" {
		t.Errorf("CurrentTranscript = %q", upd.CurrentTranscript)
	}

	if _, err := sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{AnswerRef: ref, Text: "   "}); !errors.Is(err, attempts.ErrMissingFields) {
		t.Errorf("blank chunk error = %v, want ErrMissingFields", err)
	}

	sys.Skip(ctx, f.student, ref)
	if _, err := sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{AnswerRef: ref, Text: "late"}); !errors.Is(err, attempts.ErrFinalized) {
		t.Errorf("append after finalize error = %v, want ErrFinalized", err)
	}
}

func TestSystem_Skip(t *testing.T) {
	f := seed()
	sys, _ := newSystem(t, f, fakeTranscriber{})
	ctx := context.Background()

	sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{
		AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}, Text: "Paris",
	})

	res, err := sys.Skip(ctx, f.student, attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1})
	if err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if res.PointsAwarded != 0 || res.NextQuestion == nil || res.NextQuestion.ID != f.q2 {
		t.Errorf("Skip() = %+v", res)
	}

	ans := f.store.answers[[2]uuid.UUID{f.attempt, f.q1}]
	if !ans.Finalized || ans.SpokenText != "" || *ans.PointsAwarded != 0 || *ans.SimilarityScore != 0 {
		t.Errorf("skipped answer = %+v", ans)
	}

	res, err = sys.Skip(ctx, f.student, attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q2})
	if err != nil {
		t.Fatalf("Skip(last) error = %v", err)
	}
	if res.NextQuestion != nil {
		t.Errorf("Skip(last) next = %+v, want nil", res.NextQuestion)
	}
}

func TestSystem_MoveNext(t *testing.T) {
	ctx := context.Background()

	t.Run("grades trimmed draft", func(t *testing.T) {
		f := seed()
		sys, _ := newSystem(t, f, fakeTranscriber{})
		ref := attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}
		sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{AnswerRef: ref, Text: "Paris"})

		adv, err := sys.MoveNext(ctx, f.student, attempts.MoveNextCommand{AnswerRef: ref})
		if err != nil {
			t.Fatalf("MoveNext() error = %v", err)
		}
		if adv.SpokenText != "Paris" || adv.PointsAwarded != 10 || !adv.IsCorrect {
			t.Errorf("MoveNext() = %+v", adv)
		}
		if adv.NextQuestion == nil || adv.NextQuestion.ID != f.q2 {
			t.Errorf("next = %+v, want q2", adv.NextQuestion)
		}
	})

	t.Run("provided text overrides draft", func(t *testing.T) {
		f := seed()
		sys, _ := newSystem(t, f, fakeTranscriber{})
		ref := attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}
		sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{AnswerRef: ref, Text: "London"})

		adv, _ := sys.MoveNext(ctx, f.student, attempts.MoveNextCommand{AnswerRef: ref, SpokenText: ptr("  Paris ")})
		if adv.SpokenText != "Paris" || adv.PointsAwarded != 10 {
			t.Errorf("MoveNext() = %+v", adv)
		}
	})

	t.Run("empty text scores zero", func(t *testing.T) {
		f := seed()
		sys, _ := newSystem(t, f, fakeTranscriber{})
		ref := attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q2}

		adv, err := sys.MoveNext(ctx, f.student, attempts.MoveNextCommand{AnswerRef: ref})
		if err != nil {
			t.Fatalf("MoveNext() error = %v", err)
		}
		if adv.SpokenText != "" || adv.PointsAwarded != 0 || adv.SimilarityScore != 0 || adv.IsCorrect {
			t.Errorf("MoveNext() = %+v", adv)
		}
		if adv.NextQuestion != nil {
			t.Errorf("next after last = %+v, want nil", adv.NextQuestion)
		}
		if !f.store.answers[[2]uuid.UUID{f.attempt, f.q2}].Finalized {
			t.Error("answer not finalized")
		}
	})

	t.Run("finalized text is kept", func(t *testing.T) {
		f := seed()
		sys, _ := newSystem(t, f, fakeTranscriber{})
		ref := attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}
		sys.Evaluate(ctx, f.student, attempts.EvaluateCommand{AnswerRef: ref, SpokenText: "Paris"})

		adv, _ := sys.MoveNext(ctx, f.student, attempts.MoveNextCommand{AnswerRef: ref, SpokenText: ptr("London")})
		if adv.SpokenText != "Paris" || adv.PointsAwarded != 10 {
			t.Errorf("MoveNext() = %+v, want finalized Paris kept", adv)
		}
	})
}

func TestSystem_CompleteAndEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("complete totals finalized answers", func(t *testing.T) {
		f := seed()
		sys, _ := newSystem(t, f, fakeTranscriber{})
		sys.Evaluate(ctx, f.student, attempts.EvaluateCommand{
			AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}, SpokenText: "Paris",
		})
		sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{
			AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q2}, Text: "Jupiter",
		})

		c, err := sys.Complete(ctx, f.student, f.attempt)
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if c.TotalScore != 10 || c.Status != attempts.StatusCompleted {
			t.Errorf("Complete() = %+v, want draft excluded", c)
		}

		if _, err := sys.Complete(ctx, f.student, f.attempt); !errors.Is(err, attempts.ErrCompleted) {
			t.Errorf("second Complete() error = %v, want ErrCompleted", err)
		}
		if _, err := sys.Skip(ctx, f.student, attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q2}); !errors.Is(err, attempts.ErrCompleted) {
			t.Errorf("Skip() after complete error = %v, want ErrCompleted", err)
		}
	})

	t.Run("end returns finalized breakdown", func(t *testing.T) {
		f := seed()
		sys, _ := newSystem(t, f, fakeTranscriber{})
		sys.Evaluate(ctx, f.student, attempts.EvaluateCommand{
			AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q2}, SpokenText: "Jupiter",
		})
		sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{
			AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}, Text: "draft only",
		})

		res, err := sys.End(ctx, f.student, f.attempt)
		if err != nil {
			t.Fatalf("End() error = %v", err)
		}
		if res.TotalScore != 10 || len(res.Breakdown) != 1 {
			t.Fatalf("End() = %+v", res)
		}
		if res.Breakdown[0].QuestionID != f.q2 || res.Breakdown[0].SpokenText != "Jupiter" {
			t.Errorf("breakdown = %+v", res.Breakdown[0])
		}
	})
}

func TestSystem_Results(t *testing.T) {
	f := seed()
	sys, _ := newSystem(t, f, fakeTranscriber{})
	ctx := context.Background()

	sys.Evaluate(ctx, f.student, attempts.EvaluateCommand{
		AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q1}, SpokenText: "Paris",
	})
	sys.AppendTranscript(ctx, f.student, attempts.AppendCommand{
		AnswerRef: attempts.AnswerRef{AttemptID: f.attempt, QuestionID: f.q2}, Text: "Saturn",
	})

	res, err := sys.Results(ctx, f.student, f.attempt)
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if res.ExamTitle != "Sample Exam 1" || res.TotalScore != 10 || len(res.Breakdown) != 2 {
		t.Fatalf("Results() = %+v", res)
	}

	first, second := res.Breakdown[0], res.Breakdown[1]
	if first.QuestionID != f.q1 || !first.IsCorrect || first.PointsAwarded != 10 || first.SimilarityScore != 1 {
		t.Errorf("breakdown[0] = %+v", first)
	}
	if second.PointsAwarded != 0 || second.IsCorrect || second.SpokenText != "" {
		t.Errorf("breakdown[1] = %+v, want unfinalized draft reported as 0", second)
	}
	if !strings.Contains(second.QuestionText, "largest planet") {
		t.Errorf("breakdown[1].QuestionText = %q", second.QuestionText)
	}

	sys.End(ctx, f.student, f.attempt)
	res, _ = sys.Results(ctx, f.student, f.attempt)
	if res.Status != attempts.StatusCompleted || res.TotalScore != 10 {
		t.Errorf("Results() after end = %+v", res)
	}
}
