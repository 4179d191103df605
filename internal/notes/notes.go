// Package notes renders study-notes markdown for a saved article.
package notes

import (
	"fmt"
	"strings"

	"linemark/internal/database"
)

// Build generates study-notes markdown from an article's stored metadata.
func Build(a *database.Article) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Study Notes: %s\n\n", a.Title)

	b.WriteString("## Summary\n")
	if a.Description != "" {
		b.WriteString(a.Description)
	} else {
		b.WriteString("No summary available")
	}
	b.WriteString("\n\n")

	b.WriteString("## Key Points\n")
	fmt.Fprintf(&b, "- Article URL: %s\n", a.URL)
	fmt.Fprintf(&b, "- Category: %s\n", a.Category)
	if a.Author != "" {
		fmt.Fprintf(&b, "- Author: %s\n", a.Author)
	}
	fmt.Fprintf(&b, "- Priority Score: %d/1000\n", a.Score)
	fmt.Fprintf(&b, "- Reading Time: %d minutes\n", a.ReadingTime)
	fmt.Fprintf(&b, "- Stage: %s\n", a.Stage)
	b.WriteString("\n")

	b.WriteString("## Review Questions\n")
	b.WriteString("- What is the main topic?\n")
	b.WriteString("- What are the key takeaways?\n")
	b.WriteString("- How does this apply to your work?\n")

	return b.String()
}
