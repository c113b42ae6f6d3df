package grading

// Outcome is the per-submission result of one pipeline run. A failed run at
// any stage leaves Graded false; only graded outcomes may mutate the stored
// score.
type Outcome struct {
	Score  float64
	Graded bool
}

// GradedOutcome wraps a successfully extracted score.
func GradedOutcome(score float64) Outcome {
	return Outcome{Score: score, Graded: true}
}

// NoScore is the outcome of any failed grading attempt.
func NoScore() Outcome {
	return Outcome{}
}
