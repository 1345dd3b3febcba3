package docdex

import (
	"maps"
	"strings"
)

// ChunkType classifies a chunk by its dominant content.
type ChunkType string

// Chunk classification, first match wins (see classifyChunk).
const (
	ChunkTypeCodeExample  ChunkType = "code_example"
	ChunkTypeInstallation ChunkType = "installation"
	ChunkTypeTutorial     ChunkType = "tutorial"
	ChunkTypeOverview     ChunkType = "overview"
	ChunkTypeConcept      ChunkType = "concept"
	ChunkTypeReference    ChunkType = "reference"
	ChunkTypeContent      ChunkType = "content"
	ChunkTypeUnknown      ChunkType = "unknown"
)

// Chunk is one bounded, independently embeddable unit of document text plus
// metadata. Many chunks are produced per document; each is immutable.
type Chunk struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`

	// Position of the chunk within its document.
	Index int `json:"chunkIndex"`

	Type ChunkType `json:"chunkType"`

	// Breadcrumb of the headings this chunk covers, e.g. "Agents > Creating".
	SectionHierarchy string `json:"sectionHierarchy"`

	// Minimum heading level covered by the chunk.
	HeadingLevel int `json:"headingLevel"`

	Content   string `json:"content"`
	WordCount int    `json:"wordCount"`

	HasCodeBlocks         bool `json:"hasCodeBlocks"`
	CodeBlockCount        int  `json:"codeBlockCount"`
	HasSpecialComponents  bool `json:"hasSpecialComponents"`
	SpecialComponentCount int  `json:"specialComponentCount"`

	// True when the chunk is part of a section that had to be split by
	// paragraph.
	IsPartial bool `json:"isPartial"`

	FrontMatter map[string]string `json:"frontMatter"`
}

// EmbeddingText returns the text submitted to the embedding function:
// the document title followed by the chunk content. It is used only as
// embedding input, never returned to callers.
func (c *Chunk) EmbeddingText() string {
	return c.Title + "\n\n" + c.Content
}

// Default chunk sizing, in words.
const (
	DefaultTargetChunkSize = 600
	DefaultMaxChunkSize    = 1000
	DefaultChunkOverlap    = 50
)

// Chunker derives embedding-ready chunks from parsed documents. Sections are
// grouped under their nearest level-1/2 heading; a group that fits under
// MaxSize becomes one chunk, otherwise it is split at subsection boundaries
// and, as a last resort, by paragraph. Fixed-size windows would destroy
// heading context and cut code examples mid-block; heading-anchored grouping
// keeps each chunk aligned with one coherent topic.
type Chunker struct {
	// TargetSize is the advisory chunk size in words.
	TargetSize int

	// MaxSize is the hard ceiling in words. The only chunks allowed to
	// exceed it are single indivisible paragraphs.
	MaxSize int

	// OverlapSize is the number of trailing words carried into the next
	// chunk when a section is split by paragraph.
	OverlapSize int
}

// NewChunker returns a Chunker with default sizing.
func NewChunker() *Chunker {
	return &Chunker{
		TargetSize:  DefaultTargetChunkSize,
		MaxSize:     DefaultMaxChunkSize,
		OverlapSize: DefaultChunkOverlap,
	}
}

// Chunk converts a parsed document into an ordered sequence of chunks.
func (c *Chunker) Chunk(doc *ParsedDocument, path string) []*Chunk {
	var chunks []*Chunk

	for _, group := range groupSections(doc.Sections) {
		combined := combineSections(group)
		if wordCount(combined) <= c.MaxSize {
			chunks = append(chunks, c.newChunk(doc, group, combined, len(chunks), path, false))
			continue
		}

		// The group is too large: split at subsection boundaries first.
		for _, section := range group {
			content := combineSections([]DocumentSection{section})
			if wordCount(content) <= c.MaxSize {
				chunks = append(chunks, c.newChunk(doc, []DocumentSection{section}, content, len(chunks), path, false))
				continue
			}
			chunks = append(chunks, c.splitByParagraphs(doc, section, path, len(chunks))...)
		}
	}

	return chunks
}

// groupSections groups sections under their nearest level-1/2 heading. Each
// group starts with its head section followed by any deeper subsections.
// Deep sections seen before any level-1/2 heading are collected under a
// synthesized "Content" placeholder so no content is dropped.
func groupSections(sections []DocumentSection) [][]DocumentSection {
	var groups [][]DocumentSection
	var current []DocumentSection

	for _, s := range sections {
		if s.Level <= 2 {
			if current != nil {
				groups = append(groups, current)
			}
			current = []DocumentSection{s}
			continue
		}
		if current == nil {
			current = []DocumentSection{{
				Heading:   "Content",
				Level:     2,
				StartLine: s.StartLine,
				EndLine:   s.StartLine,
			}}
		}
		current = append(current, s)
	}
	if current != nil {
		groups = append(groups, current)
	}

	return groups
}

// combineSections concatenates heading lines and bodies, separated by blank
// lines. Level-0 (preamble) sections contribute no heading line.
func combineSections(sections []DocumentSection) string {
	var parts []string
	for _, s := range sections {
		if s.Level > 0 {
			parts = append(parts, strings.Repeat("#", s.Level)+" "+s.Heading)
		}
		if body := strings.TrimSpace(s.Content); body != "" {
			parts = append(parts, body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// splitByParagraphs splits an oversized section into partial chunks at
// blank-line boundaries. Each emitted chunk is re-prefixed with the section
// heading, and the trailing OverlapSize words of a chunk are carried into
// the next one so local context survives the boundary.
func (c *Chunker) splitByParagraphs(doc *ParsedDocument, section DocumentSection, path string, baseIndex int) []*Chunk {
	prefix := "# " + section.Heading
	prefixWords := wordCount(prefix)
	paragraphs := strings.Split(section.Content, "\n\n")

	var chunks []*Chunk
	var acc []string
	accWords := prefixWords

	emit := func() {
		content := prefix + "\n\n" + strings.Join(acc, "\n\n")
		chunks = append(chunks, c.newChunk(doc, []DocumentSection{section}, content, baseIndex+len(chunks), path, true))
	}

	for _, para := range paragraphs {
		paraWords := wordCount(para)

		if accWords+paraWords > c.MaxSize && len(acc) > 0 {
			emit()

			overlap := lastWords(strings.Join(acc, "\n\n"), c.OverlapSize)
			acc = acc[:0]
			accWords = prefixWords
			// Seed the next chunk with trailing context, unless that
			// would itself push the chunk past the ceiling.
			if overlap != "" && prefixWords+wordCount(overlap)+paraWords <= c.MaxSize {
				acc = append(acc, overlap)
				accWords += wordCount(overlap)
			}
		}

		acc = append(acc, para)
		accWords += paraWords
	}

	if len(acc) > 0 {
		emit()
	}

	return chunks
}

// newChunk assembles a chunk with metadata derived from its source sections.
func (c *Chunker) newChunk(doc *ParsedDocument, sections []DocumentSection, content string, index int, path string, partial bool) *Chunk {
	var headings []string
	var codeBlocks, special int
	minLevel := 0

	for i, s := range sections {
		if s.Level > 0 {
			headings = append(headings, s.Heading)
		}
		if i == 0 || s.Level < minLevel {
			minLevel = s.Level
		}
		codeBlocks += len(s.CodeBlocks)
		special += len(s.SpecialComponents)
	}

	content = strings.TrimSpace(content)

	return &Chunk{
		Path:                  path,
		Title:                 doc.Title,
		Description:           doc.Description,
		Category:              CategoryFromPath(path),
		Index:                 index,
		Type:                  classifyChunk(sections),
		SectionHierarchy:      strings.Join(headings, " > "),
		HeadingLevel:          minLevel,
		Content:               content,
		WordCount:             wordCount(content),
		HasCodeBlocks:         codeBlocks > 0,
		CodeBlockCount:        codeBlocks,
		HasSpecialComponents:  special > 0,
		SpecialComponentCount: special,
		IsPartial:             partial,
		FrontMatter:           maps.Clone(doc.FrontMatter),
	}
}

// classifyChunk derives the chunk type from its source sections, first match
// wins: code blocks, installation terms, tutorial terms, a top-level
// heading, concept terms, reference terms, and finally plain content.
func classifyChunk(sections []DocumentSection) ChunkType {
	if len(sections) == 0 {
		return ChunkTypeUnknown
	}

	var hasCode, hasTopLevel bool
	var sb strings.Builder
	for _, s := range sections {
		if len(s.CodeBlocks) > 0 {
			hasCode = true
		}
		if s.Level == 1 {
			hasTopLevel = true
		}
		sb.WriteString(s.Content)
		sb.WriteString(" ")
	}
	content := strings.ToLower(sb.String())

	switch {
	case hasCode:
		return ChunkTypeCodeExample
	case strings.Contains(content, "install") || strings.Contains(content, "setup"):
		return ChunkTypeInstallation
	case containsAny(content, "step", "tutorial", "guide", "how to"):
		return ChunkTypeTutorial
	case hasTopLevel:
		return ChunkTypeOverview
	case strings.Contains(content, "concept") || strings.Contains(content, "definition"):
		return ChunkTypeConcept
	case strings.Contains(content, "api") || strings.Contains(content, "reference"):
		return ChunkTypeReference
	default:
		return ChunkTypeContent
	}
}

// CategoryFromPath derives a chunk category from the parent directory
// segment of a document path. Documents at the corpus root map to "root";
// an empty path maps to "unknown".
func CategoryFromPath(path string) string {
	if path == "" {
		return "unknown"
	}
	parts := strings.Split(path, "/")
	if len(parts) > 1 {
		return parts[len(parts)-2]
	}
	return "root"
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// lastWords returns the trailing n words of s joined by single spaces.
func lastWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[len(fields)-n:]
	}
	return strings.Join(fields, " ")
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
