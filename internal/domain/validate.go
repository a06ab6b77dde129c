package domain

import (
	"fmt"
	"strings"
)

// QuestionSpec is the authoring-side input for a question, before it is
// assigned an id and vote counters.
type QuestionSpec struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
	Points  int      `json:"points"`
}

// Validate enforces the question invariants: non-empty text, exactly four
// distinct non-empty options, the correct option among them, positive points.
func (s QuestionSpec) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("%w: question text is empty", ErrValidation)
	}
	if len(s.Options) != OptionCount {
		return fmt.Errorf("%w: expected %d options, got %d", ErrValidation, OptionCount, len(s.Options))
	}
	seen := make(map[string]struct{}, OptionCount)
	for _, opt := range s.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: option is empty", ErrValidation)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: duplicate option %q", ErrValidation, opt)
		}
		seen[opt] = struct{}{}
	}
	if _, ok := seen[s.Correct]; !ok {
		return fmt.Errorf("%w: correct option %q is not among the options", ErrValidation, s.Correct)
	}
	if s.Points < 1 {
		return fmt.Errorf("%w: points must be at least 1, got %d", ErrValidation, s.Points)
	}
	return nil
}
