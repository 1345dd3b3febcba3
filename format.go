package docdex

import (
	"fmt"
	"strings"
)

// FormatSearchResponse formats a search response for terminal display.
// Non-ready responses render as a single status line.
func FormatSearchResponse(resp *SearchResponse) string {
	if resp.Status != SearchStatusReady {
		return resp.Message
	}

	if len(resp.Results) == 0 {
		return fmt.Sprintf("No results for %q.", resp.Query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d results for %q (%d documents indexed)\n", resp.TotalFound, resp.Query, resp.TotalDocs)
	for i, r := range resp.Results {
		fmt.Fprintf(&sb, "\n%d. %s  [%s  %s  score %.3f]\n", i+1, r.Title, r.Category, r.ChunkType, r.Score)
		fmt.Fprintf(&sb, "   %s\n", r.Path)
		if r.SectionHierarchy != "" {
			fmt.Fprintf(&sb, "   %s\n", r.SectionHierarchy)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", strings.ReplaceAll(r.Snippet, "\n", " "))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
