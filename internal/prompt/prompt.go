// Package prompt assembles the system and user messages sent to a model
// for one benchmark question.
//
// The wording is part of the benchmark contract: responses are compared
// verbatim against the dataset references, so these texts are fixed and
// identical for every run. Four forms cover the combinations of an
// inline audio transcription and the annotator steps replayed on a
// retry.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
)

// Form selects which prompt variant a question uses.
type Form int

const (
	// FormPlain asks the question as-is.
	FormPlain Form = iota
	// FormTranscript inlines the transcription of an attached audio file.
	FormTranscript
	// FormTranscriptSteps inlines both the transcription and the
	// annotator steps.
	FormTranscriptSteps
	// FormSteps replays the annotator steps with the question.
	FormSteps
)

const (
	outputFormat = "Provide a clear and conclusive answer to the Question being asked. " +
		"Do not provide any reasoning or references for your answer."

	// assistantInstruction keeps its trailing space so the system text
	// concatenates cleanly after it.
	assistantInstruction = "You are an assistant that answers any questions relevant to the " +
		"file that is uploaded in the thread. "

	plainSystem = `Every prompt will begin with the text "Question:" followed by the question ` +
		`enclosed in triple backticks. The text "Output Format:" explains how the Question ` +
		`must be answered. You are an AI that reads the Question enclosed in triple backticks ` +
		`and provides the answer in the mentioned Output Format.`

	stepsSystem = `Every prompt will begin with the text "Question:" followed by the question ` +
		`enclosed in triple backticks. The "Annotator Steps:" mentions the steps that you should take ` +
		`for answering the question. The text "Output Format:" explains how the Question ` +
		`output must be formatted. You are an AI that reads the Question enclosed in triple backticks ` +
		`and follows the Annotator Steps and provides the answer in the mentioned Output Format.`

	transcriptSystem = `Every prompt will begin with the text "Question:" followed by the question ` +
		`enclosed in triple backticks. The question will mention that there is an .mp3 file attached however the .mp3 file has ` +
		`already been transcribed and the transcribed text is attached after the text: "Transcription:". The text "Output Format:" ` +
		`explains how the Question must be answered. You are an AI that reads the Question enclosed in triple backticks and ` +
		`the Transcript and provides the answer in the mentioned Output Format.`

	transcriptStepsSystem = `Every prompt will begin with the text "Question:" followed by the question ` +
		`enclosed in triple backticks. The question will mention that there is an .mp3 file attached however the .mp3 file has ` +
		`already been transcribed and the transcribed text is attached after the text: "Transcription:". The "Annotator Steps:" ` +
		`mentions the steps that you should take for answering the question. The text "Output Format:" ` +
		`explains how the Question must be answered. You are an AI that reads the Question enclosed in triple backticks and ` +
		`the Transcript and follows the Annotator Steps and provides the answer in the mentioned Output Format.`
)

// FormFor picks the prompt form for a question. Audio questions carry
// their transcription inline, and withSteps marks a retry that replays
// the annotator steps.
func FormFor(kind gaia.FileKind, withSteps bool) Form {
	audio := kind == gaia.FileAudio
	switch {
	case audio && withSteps:
		return FormTranscriptSteps
	case audio:
		return FormTranscript
	case withSteps:
		return FormSteps
	default:
		return FormPlain
	}
}

// System returns the system message for the form.
func (f Form) System() string {
	switch f {
	case FormTranscript:
		return transcriptSystem
	case FormTranscriptSteps:
		return transcriptStepsSystem
	case FormSteps:
		return stepsSystem
	default:
		return plainSystem
	}
}

// AssistantInstructions returns the instructions for a file-analysis
// assistant: the upload notice followed by the form's system message.
func (f Form) AssistantInstructions() string {
	return assistantInstruction + f.System()
}

// Input carries the pieces interpolated into a user message.
type Input struct {
	Question      string
	Transcription string
	Steps         string
}

// Content builds the user message for the form. Sections appear in a
// fixed order and the output format always closes the message.
func (f Form) Content(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: ```%s```\n", in.Question)
	if f == FormTranscript || f == FormTranscriptSteps {
		fmt.Fprintf(&b, "Transcription: %s\n", in.Transcription)
	}
	if f == FormTranscriptSteps || f == FormSteps {
		fmt.Fprintf(&b, "Annotator Steps: %s\n", in.Steps)
	}
	fmt.Fprintf(&b, "Output Format: %s\n", outputFormat)
	return b.String()
}

func (f Form) String() string {
	switch f {
	case FormPlain:
		return "plain"
	case FormTranscript:
		return "transcript"
	case FormTranscriptSteps:
		return "transcript+steps"
	case FormSteps:
		return "steps"
	default:
		return fmt.Sprintf("form(%d)", int(f))
	}
}
