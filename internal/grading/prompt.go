package grading

import (
	"fmt"

	"github.com/classly/classly-api/pkg/ai"
)

// PromptInput carries everything required to assemble one grading request.
type PromptInput struct {
	Subject     string
	MaxScore    float64
	Task        ai.Part
	Solution    ai.Part
	Submission  ai.Part
	OCRText     string
	Handwritten bool
}

// BuildPrompt assembles the ordered content parts the grading model
// expects: instructions, task, reference solution, student submission and,
// for handwritten work with a non-empty OCR transcript, a trailing OCR
// block. The ordering is a protocol contract with the model.
func BuildPrompt(in PromptInput) []ai.Part {
	instructions := fmt.Sprintf(
		"You are an expert assignment grader for the course %s. I will provide "+
			"you with the assignment's task, a correct solution, and a student's submission. Carefully compare "+
			"the student's submission to the task and the provided solution. Your primary goal is to evaluate "+
			"accuracy, completeness, and adherence to the task requirements. Assign a numerical score between 0.0 and "+
			"%g (inclusive). Provide ONLY the numerical score in your response, "+
			"preceded by the text 'Score: ', for example: 'Score: 85.5'. Do not include any other text, "+
			"explanation, or formatting beyond this.",
		in.Subject, in.MaxScore,
	)

	parts := []ai.Part{
		ai.TextPart(instructions),
		ai.TextPart("Assignment Task:"),
		in.Task,
		ai.TextPart("Reference Solution:"),
		in.Solution,
		ai.TextPart("Student Submission:"),
		in.Submission,
	}

	if in.Handwritten && in.OCRText != "" {
		parts = append(parts, ai.TextPart(fmt.Sprintf(
			"OCR extracted text from the handwritten submission, provided as an "+
				"aid in case the image quality is low:\n%s", in.OCRText,
		)))
	}

	return parts
}
