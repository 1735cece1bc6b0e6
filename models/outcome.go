package models

import (
	"fmt"
	"time"
)

// FinalAction is what the pipeline decided to do with an item
type FinalAction string

const (
	ActionBookmarked FinalAction = "bookmarked"
	ActionSkipped    FinalAction = "skipped"
)

// BookmarkResult is the outcome of a bookmark dispatch
type BookmarkResult string

const (
	BookmarkAlreadySaved BookmarkResult = "alreadySaved"
	BookmarkSaved        BookmarkResult = "saved"
	BookmarkFailed       BookmarkResult = "failed"
)

// Verdict is the parsed answer of a stage follow-up prompt
type Verdict string

const (
	VerdictYes          Verdict = "yes"
	VerdictNo           Verdict = "no"
	VerdictInconclusive Verdict = "inconclusive"
)

// StageCount is the number of classification stages
const StageCount = 3

// ClassificationOutcome is the full record of one item's cascade run.
// Stage 2 and 3 fields are nil when the cascade stopped before reaching them.
// A stage answer is the raw reply to the yes/no re-ask and is nil when that
// call never returned.
type ClassificationOutcome struct {
	ID                ItemID         `json:"id"`
	Stage1Pass        bool           `json:"stage1Pass"`
	Stage1Explanation string         `json:"stage1Explanation"`
	Stage1Answer      *string        `json:"stage1Answer,omitempty"`
	Stage2Pass        *bool          `json:"stage2Pass"`
	Stage2Explanation *string        `json:"stage2Explanation"`
	Stage2Answer      *string        `json:"stage2Answer,omitempty"`
	Stage3Pass        *bool          `json:"stage3Pass"`
	Stage3Explanation *string        `json:"stage3Explanation"`
	Stage3Answer      *string        `json:"stage3Answer,omitempty"`
	FinalAction       FinalAction    `json:"finalAction"`
	ServiceError      string         `json:"serviceError,omitempty"`
	InconclusiveStage int            `json:"inconclusiveStage,omitempty"`
	Bookmark          BookmarkResult `json:"bookmark,omitempty"`
	Language          string         `json:"language,omitempty"`
	Description       string         `json:"description,omitempty"`
	ProcessedAt       time.Time      `json:"processedAt"`
}

// SetStage records the verdict and explanation of stage n (1-based)
func (o *ClassificationOutcome) SetStage(n int, pass bool, explanation string) {
	switch n {
	case 1:
		o.Stage1Pass = pass
		o.Stage1Explanation = explanation
	case 2:
		o.Stage2Pass = &pass
		o.Stage2Explanation = &explanation
	case 3:
		o.Stage3Pass = &pass
		o.Stage3Explanation = &explanation
	default:
		panic(fmt.Sprintf("models: invalid stage %d", n))
	}
}

// SetAnswer records the raw yes/no reply of stage n (1-based)
func (o *ClassificationOutcome) SetAnswer(n int, answer string) {
	switch n {
	case 1:
		o.Stage1Answer = &answer
	case 2:
		o.Stage2Answer = &answer
	case 3:
		o.Stage3Answer = &answer
	default:
		panic(fmt.Sprintf("models: invalid stage %d", n))
	}
}

// Answer returns the raw yes/no reply of stage n and whether one was recorded
func (o *ClassificationOutcome) Answer(n int) (string, bool) {
	var a *string
	switch n {
	case 1:
		a = o.Stage1Answer
	case 2:
		a = o.Stage2Answer
	case 3:
		a = o.Stage3Answer
	}
	if a == nil {
		return "", false
	}
	return *a, true
}

// Stage returns the recorded verdict of stage n. attempted is false when the
// cascade never reached the stage.
func (o *ClassificationOutcome) Stage(n int) (pass bool, explanation string, attempted bool) {
	switch n {
	case 1:
		return o.Stage1Pass, o.Stage1Explanation, true
	case 2:
		if o.Stage2Pass == nil {
			return false, "", false
		}
		return *o.Stage2Pass, deref(o.Stage2Explanation), true
	case 3:
		if o.Stage3Pass == nil {
			return false, "", false
		}
		return *o.Stage3Pass, deref(o.Stage3Explanation), true
	}
	return false, "", false
}

// Failed reports whether the cascade was aborted by a reasoning service error
func (o *ClassificationOutcome) Failed() bool {
	return o.ServiceError != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
