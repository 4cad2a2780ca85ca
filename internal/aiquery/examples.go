package aiquery

var userExampleQueries = []string{
	"Show my most expensive books",
	"How many books do I have?",
	"Show me my statistics",
	"What books am I currently reading?",
	"Show me my programming books",
	"What's my most common genre?",
}

var adminExampleQueries = []string{
	"Who owns the most books?",
	"Which is the most popular book?",
	"Show the five most expensive books",
	"What are the general library statistics?",
	"Show books by genre Fantasy",
	"Show the completed books",
}

// ExampleQueries returns sample questions suited to the caller's role.
func ExampleQueries(isAdmin bool) []string {
	src := userExampleQueries
	if isAdmin {
		src = adminExampleQueries
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
