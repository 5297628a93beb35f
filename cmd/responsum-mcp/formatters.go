package main

import (
	"fmt"
	"strings"
)

// formatAnswers formats question/answer pairs as markdown
func formatAnswers(documentURL string, questions, answers []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Document Q&A (%d questions)\n\n", len(questions)))
	sb.WriteString(fmt.Sprintf("**Document:** %s\n\n", documentURL))

	for i, question := range questions {
		sb.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, question))
		if i < len(answers) {
			sb.WriteString(answers[i])
		} else {
			sb.WriteString("_No answer produced._")
		}
		sb.WriteString("\n\n")
	}

	return sb.String()
}
