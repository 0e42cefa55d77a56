package intake

import (
	"strconv"
	"strings"
	"unicode"
)

// Step identifies a stage of the fixed eight-step questionnaire.
type Step string

const (
	StepChildName      Step = "child_name"
	StepPhoto          Step = "photo"
	StepVideo          Step = "video"
	StepFootSize       Step = "foot_size"
	StepHeight         Step = "height"
	StepParentName     Step = "parent_name"
	StepParentPhone    Step = "parent_phone"
	StepParentTelegram Step = "parent_telegram"
)

// StepOrder lists the steps in their strict forward order.
var StepOrder = []Step{
	StepChildName,
	StepPhoto,
	StepVideo,
	StepFootSize,
	StepHeight,
	StepParentName,
	StepParentPhone,
	StepParentTelegram,
}

// textStep describes one text-driven stage: how to validate the answer,
// where to store it, and which step follows. Media steps (photo, video)
// are handled by the media handlers and have no entry here.
type textStep struct {
	validate func(string) (string, error)
	assign   func(*Session, string)
	next     Step
	final    bool
}

var textSteps = map[Step]textStep{
	StepChildName: {
		validate: validateName,
		assign:   func(s *Session, v string) { s.ChildName = v },
		next:     StepPhoto,
	},
	StepFootSize: {
		validate: rangeValidator(30),
		assign:   func(s *Session, v string) { s.FootSize = v },
		next:     StepHeight,
	},
	StepHeight: {
		validate: rangeValidator(200),
		assign:   func(s *Session, v string) { s.Height = v },
		next:     StepParentName,
	},
	StepParentName: {
		validate: validateName,
		assign:   func(s *Session, v string) { s.ParentName = v },
		next:     StepParentPhone,
	},
	StepParentPhone: {
		validate: validatePhone,
		assign:   func(s *Session, v string) { s.ParentPhone = v },
		next:     StepParentTelegram,
	},
	StepParentTelegram: {
		validate: validateTelegram,
		assign:   func(s *Session, v string) { s.ParentTelegram = v },
		final:    true,
	},
}

func validateName(text string) (string, error) {
	if len([]rune(text)) < 2 {
		return "", errInvalid
	}
	return text, nil
}

// rangeValidator builds a numeric check for (0, max]. Both comma and dot
// are accepted as the decimal separator; the raw text is kept as the value.
// Unparseable input and out-of-range values fail with distinct errors so the
// retry text can tell "enter a number" from "enter a correct value".
func rangeValidator(max float64) func(string) (string, error) {
	return func(text string) (string, error) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
		if err != nil {
			return "", errNotNumber
		}
		if v <= 0 || v > max {
			return "", errInvalid
		}
		return text, nil
	}
}

// validatePhone strips everything but digits and requires 10 or 11 of them.
func validatePhone(text string) (string, error) {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 && len(digits) != 11 {
		return "", errInvalid
	}
	return digits, nil
}

func validateTelegram(text string) (string, error) {
	if !strings.HasPrefix(text, "@") {
		return "", errInvalid
	}
	return text, nil
}
