package answer

import (
	"fmt"
	"strings"
)

// RefusalAnswer is the exact wording the model is instructed to use when
// the question is not answerable from the supplied context.
const RefusalAnswer = "Not found in the CV"

// NoCandidatesAnswer is returned when retrieval produced no candidates at
// all; the model is not consulted in that case.
const NoCandidatesAnswer = "Not found in the CVs"

const promptTemplate = `You are an assistant answering questions ONLY using the provided context.
If the answer is not present in the context, say exactly:
"%s".

CONTEXT:
%s

QUESTION:
%s

ANSWER:`

// BuildPrompt embeds the candidate's context blocks and the question into
// the grounded instruction template. Blocks are separated by blank lines
// in their aggregated order.
func BuildPrompt(contextTexts []string, question string) string {
	context := strings.Join(contextTexts, "\n\n")
	return fmt.Sprintf(promptTemplate, RefusalAnswer, context, question)
}
