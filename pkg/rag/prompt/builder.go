package prompt

import (
	"fmt"
	"strings"
)

// ContextualBuilder assembles the user-side prompt: retrieved passages as
// reference material followed by the question. The medical system
// instruction travels separately as the system message.
type ContextualBuilder struct {
	passages []string
	query    string
}

func NewContextualBuilder(passages []string, query string) *ContextualBuilder {
	return &ContextualBuilder{
		passages: passages,
		query:    query,
	}
}

func (b *ContextualBuilder) Build() string {
	var prompt strings.Builder

	b.writeReferencePassages(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *ContextualBuilder) writeReferencePassages(prompt *strings.Builder) {
	if len(b.passages) == 0 {
		return
	}

	prompt.WriteString("<reference_passages>\n")
	for i, passage := range b.passages {
		prompt.WriteString(fmt.Sprintf("[Passage %d]\n", i+1))
		prompt.WriteString(passage)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_passages>\n\n")
}

func (b *ContextualBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Answer the question using the reference passages above:")
}
