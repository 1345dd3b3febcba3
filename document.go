package docdex

// DocumentSection represents one headed section of a parsed document.
// Sections are immutable once built and owned by their parent document.
type DocumentSection struct {
	// Heading text without the leading # markers. The preamble section
	// (content before the first heading) uses the synthetic heading
	// "Introduction".
	Heading string `json:"heading"`

	// Heading depth: 0 for the preamble, 1-4 for # through ####.
	Level int `json:"level"`

	// Section body text, trimmed, without the heading line.
	Content string `json:"content"`

	// Line offsets into the front-matter-stripped document text.
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`

	// Bodies of fenced code blocks found in the section, in order.
	CodeBlocks []string `json:"codeBlocks,omitempty"`

	// Special inline components (Note, Step, Video, Warning, Tip) found
	// in the section, in order, including their tags.
	SpecialComponents []string `json:"specialComponents,omitempty"`
}

// ParsedDocument represents a structured view of one source document.
// One instance is produced per ParseDocument call.
type ParsedDocument struct {
	// Flat key/value front-matter. Empty (non-nil) when the document has
	// no front-matter block.
	FrontMatter map[string]string `json:"frontMatter"`

	// Resolved title: front-matter "title", else the first heading, else
	// the document path.
	Title string `json:"title"`

	// Resolved description: front-matter "description", else empty.
	Description string `json:"description"`

	// Ordered document sections.
	Sections []DocumentSection `json:"sections"`

	// The original raw text, including front-matter.
	RawContent string `json:"rawContent"`
}
