// Package campusrag provides a Go client for the campusrag HTTP API.
//
// The client wraps the chat endpoint plus the health and stats diagnostics:
//
//	client, _ := campusrag.New("https://rag.example.edu",
//	    campusrag.WithAPIKey("key-1"),
//	)
//	answer, _ := client.Ask(ctx, "When is tuition due?", campusrag.AskOptions{})
//	fmt.Println(answer.Answer, answer.Confidence)
package campusrag
