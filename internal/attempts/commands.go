package attempts

import (
	"strings"

	"github.com/google/uuid"
)

type AnswerRef struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	QuestionID uuid.UUID `json:"question_id"`
}

func (r AnswerRef) Validate() error {
	if r.AttemptID == uuid.Nil || r.QuestionID == uuid.Nil {
		return ErrMissingFields
	}
	return nil
}

type AttemptRef struct {
	AttemptID uuid.UUID `json:"attempt_id"`
}

type EvaluateCommand struct {
	AnswerRef
	SpokenText string `json:"spoken_text"`
}

type SubmitCommand struct {
	AnswerRef
	Audio       []byte
	ContentType string
}

type AppendCommand struct {
	AnswerRef
	Text string `json:"text"`
}

// MoveNextCommand finalizes the current answer. SpokenText overrides the
// draft when set.
type MoveNextCommand struct {
	AnswerRef
	SpokenText *string `json:"spoken_text,omitempty"`
}

type VoiceCommandRequest struct {
	AnswerRef
	Command    string  `json:"command"`
	SpokenText *string `json:"spoken_text,omitempty"`
}

// Command is a navigation action spoken by the student.
type Command string

const (
	CommandSkip Command = "skip"
	CommandNext Command = "next"
	CommandEnd  Command = "end"
)

var phrases = map[string]Command{
	"skip":                      CommandSkip,
	"skip the question":         CommandSkip,
	"skip this question":        CommandSkip,
	"next question":             CommandNext,
	"move next":                 CommandNext,
	"move to the next question": CommandNext,
	"move to next question":     CommandNext,
	"end exam":                  CommandEnd,
	"end examination":           CommandEnd,
	"end the exam":              CommandEnd,
	"finish exam":               CommandEnd,
	"finish examination":        CommandEnd,
}

// ParseCommand maps a spoken phrase to a Command. Matching ignores case
// and surrounding whitespace.
func ParseCommand(phrase string) (Command, error) {
	cmd, ok := phrases[strings.ToLower(strings.TrimSpace(phrase))]
	if !ok {
		return "", ErrUnknownCommand
	}
	return cmd, nil
}
