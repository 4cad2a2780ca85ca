package llm

import (
	"fmt"
	"strings"

	"library-ai-workers/internal/models"
)

var queryTypeDescriptions = map[models.QueryType]string{
	models.QueryTypeUserWithMostBooks: "Find the user who owns the most books",
	models.QueryTypeMostPopularBook:   "Find the most popular book (read or finished by the most users)",
	models.QueryTypeExpensiveBooks:    "Find the most expensive books",
	models.QueryTypeBooksByGenre:      "Find books by genre",
	models.QueryTypeBooksByStatus:     "Find books by reading status (NotStarted, Reading, Completed)",
	models.QueryTypeUserStatistics:    "Get reading statistics for the user",
	models.QueryTypeGeneralStatistics: "Get overall library statistics",
	models.QueryTypeMyBookCount:       "Get the total number of books the user owns",
	models.QueryTypeCurrentlyReading:  "Get books the user is currently reading",
	models.QueryTypeCommonGenre:       "Find the most common genre of the user's books",
}

const classifyResponseFormat = `{
  "queryType": "TYPE_NAME",
  "parameters": {
    "limit": 5,
    "genre": "value",
    "status": "value"
  }
}`

const answerSystemPrompt = `You are a helpful assistant that generates human-readable answers from data.
Given a user's question and the retrieved data, create a clear, concise answer.
Keep the answer brief and natural, like you're talking to a friend.
Do NOT use any Markdown formatting.
Do NOT use **bold**, *italic*, lists, bullet points, or symbols.
Respond ONLY with plain text sentences.`

func buildClassifySystemPrompt() string {
	parts := []string{
		"You are an AI assistant that helps analyze natural language queries about a library management system.",
		"Given a user's question, determine what data they want to retrieve and respond with a structured JSON object.",
		"",
		"Available query types:",
	}
	for i, qt := range models.AllQueryTypes {
		parts = append(parts, fmt.Sprintf("%d. %s - %s", i+1, qt, queryTypeDescriptions[qt]))
	}
	parts = append(parts,
		"",
		"Respond ONLY with valid JSON in this format:",
		classifyResponseFormat,
	)
	return strings.Join(parts, "\n")
}

func buildClassifyUserPrompt(query, contextDescription string) string {
	parts := []string{
		fmt.Sprintf("Context: %s", contextDescription),
		"",
		fmt.Sprintf("User Query: %s", query),
		"",
		"Analyze this query and return the appropriate JSON response.",
	}
	return strings.Join(parts, "\n")
}

func buildAnswerUserPrompt(query, data string) string {
	parts := []string{
		fmt.Sprintf("User asked: %s", query),
		"",
		fmt.Sprintf("Data retrieved: %s", data),
		"",
		"Generate a friendly, natural language answer.",
	}
	return strings.Join(parts, "\n")
}
