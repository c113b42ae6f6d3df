package grading

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoScore indicates the model output contained no usable score.
var ErrNoScore = errors.New("no score found in model output")

// scorePrefix is the strict output format the model is instructed to use.
const scorePrefix = "Score: "

var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// ExtractScore parses a bounded numeric score out of the model's free-text
// reply. The strict "Score: " prefix wins; otherwise the first unsigned
// decimal anywhere in the text is accepted, tolerating minor format drift.
// Out-of-range values are clamped into [0, maxScore], not rejected.
func ExtractScore(raw string, maxScore float64) (float64, error) {
	if strings.HasPrefix(raw, scorePrefix) {
		value, err := strconv.ParseFloat(strings.TrimSpace(raw[len(scorePrefix):]), 64)
		if err != nil {
			return 0, ErrNoScore
		}
		return clamp(value, 0, maxScore), nil
	}

	match := numberPattern.FindString(raw)
	if match == "" {
		return 0, ErrNoScore
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, ErrNoScore
	}

	return clamp(value, 0, maxScore), nil
}

// RoundQuarter rounds a score to the nearest multiple of 0.25, the grading
// granularity persisted on submissions.
func RoundQuarter(value float64) float64 {
	return math.Round(value*4) / 4
}

func clamp(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(value, upper))
}
