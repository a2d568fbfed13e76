package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"resumecheck/internal/resume"
)

// ErrMalformedFeedback marks an analysis payload that does not match the
// expected feedback shape. Terminal for the current submission.
var ErrMalformedFeedback = errors.New("malformed feedback payload")

var requiredPaths = []string{
	"overallScore",
	"ATS.score",
	"toneAndStyle.score",
	"content.score",
	"structure.score",
	"skills.score",
}

// ParseFeedback structurally parses the analysis text into a Feedback value.
// Models occasionally wrap the JSON in markdown fences despite instructions,
// so fences are stripped before parsing.
func ParseFeedback(text string) (resume.Feedback, error) {
	raw := stripFences(text)

	if !gjson.Valid(raw) {
		return resume.Feedback{}, fmt.Errorf("%w: not valid json", ErrMalformedFeedback)
	}
	for _, path := range requiredPaths {
		if !gjson.Get(raw, path).Exists() {
			return resume.Feedback{}, fmt.Errorf("%w: missing %s", ErrMalformedFeedback, path)
		}
	}

	var feedback resume.Feedback
	if err := json.Unmarshal([]byte(raw), &feedback); err != nil {
		return resume.Feedback{}, fmt.Errorf("%w: %v", ErrMalformedFeedback, err)
	}
	return feedback, nil
}

func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
