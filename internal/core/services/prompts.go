package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

const summaryInstruction = "Please summarize the following conversations into a concise paragraph " +
	"that captures the main topics discussed and key points from both the user's queries and the " +
	"assistant's responses."

// summaryPrompt formats a full turn buffer for compaction.
func summaryPrompt(turns []domain.Turn) string {
	formatted := make([]string, 0, len(turns))
	for _, t := range turns {
		formatted = append(formatted, fmt.Sprintf("User: %s\nAssistant: %s", t.Query, t.Response))
	}
	return summaryInstruction + "\n\n" + strings.Join(formatted, "\n\n")
}

// answerPrompt embeds retrieved context, conversational memory and the
// query into one generation request. Retrieved documents are the primary
// source of truth; memory provides continuity only.
func answerPrompt(retrieved *domain.RetrievalResult, window domain.MemoryWindow, query string) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant using a Retrieval-Augmented Generation (RAG) method to answer user queries.\n")
	sb.WriteString("Here are the inputs provided to you:\n\n")

	sb.WriteString("### Contextual Information\n")
	sb.WriteString("1. **Document Details**:\n")
	if contents := retrieved.Contents(); len(contents) > 0 {
		for _, content := range contents {
			sb.WriteString("    - ")
			sb.WriteString(content)
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("    (no matching documents)\n")
	}

	sb.WriteString("2. **Memory (Previous Conversation History)**:\n")
	if window.Empty() {
		sb.WriteString("    (no previous conversation)\n")
	} else {
		if window.LatestSummary != nil {
			sb.WriteString("    Summary of earlier conversation: ")
			sb.WriteString(window.LatestSummary.Text)
			sb.WriteString("\n")
		}
		for _, t := range window.Turns {
			fmt.Fprintf(&sb, "    User: %s\n    Assistant: %s\n", t.Query, t.Response)
		}
	}

	sb.WriteString("3. **User Query**:\n    ")
	sb.WriteString(query)
	sb.WriteString("\n\n")

	sb.WriteString("### Instructions:\n")
	sb.WriteString("    - Use the provided **Document Details** as the primary source of truth to answer the query.\n")
	sb.WriteString("    - Refer to the **Memory** to maintain conversation context and continuity. Use this information to make your response coherent and contextual.\n")
	sb.WriteString("    - If relevant information from the **Memory** or **Document Details** is missing, clarify this in your response and guide the user on how to proceed.\n")
	sb.WriteString("### Response:\n")
	sb.WriteString("    - Be concise and accurate. If additional explanations are required, provide them clearly.\n")
	sb.WriteString("    - Ensure your response aligns with the user's intent as reflected in the query and conversation context.\n")
	sb.WriteString("    - Where applicable, suggest follow-up actions or related queries for deeper understanding.\n")

	return sb.String()
}
