package docdex

import (
	"regexp"
	"strings"
)

// Special inline components recognized inside section bodies. Tag names are
// matched case-insensitively; attributes in the opening tag are allowed.
var specialOpenRE = regexp.MustCompile(`(?i)<(Note|Step|Video|Warning|Tip)[^>]*>`)

// ParseDocument parses markdown-with-embedded-components into a structured
// document. It is a pure function of its input and never fails: malformed
// constructs degrade gracefully (missing front-matter yields an empty map,
// an unterminated code fence or component tag yields no extracted block).
//
// The title resolves to the front-matter "title" value, else the first
// heading in the body, else the given path.
func ParseDocument(content, path string) *ParsedDocument {
	frontMatter, body := parseFrontMatter(content)

	title := frontMatter["title"]
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = path
	}

	return &ParsedDocument{
		FrontMatter: frontMatter,
		Title:       title,
		Description: frontMatter["description"],
		Sections:    parseSections(body),
		RawContent:  content,
	}
}

// parseFrontMatter extracts a leading front-matter block delimited by "---"
// lines at the very start of the text. It returns the parsed key/value pairs
// and the remaining text. An unterminated block yields no front-matter.
func parseFrontMatter(content string) (map[string]string, string) {
	frontMatter := make(map[string]string)

	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return frontMatter, content
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return frontMatter, content
	}

	// Flat "key: value" lines only; no nested structures. Malformed lines
	// are skipped rather than reported.
	for _, line := range lines[1:end] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		frontMatter[key] = trimMatchingQuotes(strings.TrimSpace(value))
	}

	return frontMatter, strings.Join(lines[end+1:], "\n")
}

// trimMatchingQuotes strips one matching pair of leading/trailing quote
// characters from a value.
func trimMatchingQuotes(s string) string {
	if len(s) >= 2 && s[0] == s[len(s)-1] && (s[0] == '"' || s[0] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// parseHeading reports whether a line opens a section: 1 to 4 leading '#'
// characters, whitespace, then non-empty text.
func parseHeading(line string) (level int, text string, ok bool) {
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 4 {
		return 0, "", false
	}
	rest := line[level:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return 0, "", false
	}
	text = strings.TrimSpace(rest)
	if text == "" {
		return 0, "", false
	}
	return level, text, true
}

// firstHeading returns the text of the first heading in the content, or "".
func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if _, text, ok := parseHeading(line); ok {
			return text
		}
	}
	return ""
}

// parseSections scans content line by line with two states: preamble (before
// the first heading) and in-heading-section. Non-empty preamble content is
// captured as a level-0 "Introduction" section so nothing is dropped.
func parseSections(content string) []DocumentSection {
	lines := strings.Split(content, "\n")

	var sections []DocumentSection
	var current *DocumentSection
	var body []string

	flush := func(endLine int) {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if current == nil {
			// Preamble state.
			if text == "" {
				return
			}
			sections = append(sections, DocumentSection{
				Heading:           "Introduction",
				Level:             0,
				Content:           text,
				StartLine:         0,
				EndLine:           endLine,
				CodeBlocks:        extractCodeBlocks(text),
				SpecialComponents: extractSpecialComponents(text),
			})
			return
		}
		current.Content = text
		current.EndLine = endLine
		current.CodeBlocks = extractCodeBlocks(text)
		current.SpecialComponents = extractSpecialComponents(text)
		sections = append(sections, *current)
	}

	for i, line := range lines {
		if level, text, ok := parseHeading(line); ok {
			flush(i - 1)
			current = &DocumentSection{Heading: text, Level: level, StartLine: i, EndLine: i}
			body = body[:0]
			continue
		}
		body = append(body, line)
	}
	flush(len(lines) - 1)

	return sections
}

// extractCodeBlocks returns the bodies of fenced code blocks, in order.
// A fence opens on a line starting with ``` (optional language tag) and
// closes on the next such line. An unterminated fence yields no block; its
// raw text remains part of the section body.
func extractCodeBlocks(content string) []string {
	var blocks []string
	var block []string
	inFence := false

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inFence {
				blocks = append(blocks, strings.Join(block, "\n"))
				inFence = false
				continue
			}
			inFence = true
			block = block[:0]
			continue
		}
		if inFence {
			block = append(block, line)
		}
	}

	return blocks
}

// extractSpecialComponents returns recognized tag-delimited components, in
// order. Matching is case-insensitive and non-greedy across line breaks; an
// opening tag without a matching closing tag yields no component.
func extractSpecialComponents(content string) []string {
	var components []string
	lower := strings.ToLower(content)

	pos := 0
	for pos < len(content) {
		loc := specialOpenRE.FindStringSubmatchIndex(content[pos:])
		if loc == nil {
			break
		}
		name := content[pos+loc[2] : pos+loc[3]]
		openEnd := pos + loc[1]

		closing := "</" + strings.ToLower(name) + ">"
		rel := strings.Index(lower[openEnd:], closing)
		if rel < 0 {
			// Unterminated component: skip the opening tag and keep scanning.
			pos = openEnd
			continue
		}

		inner := content[openEnd : openEnd+rel]
		components = append(components, "<"+name+">"+inner+"</"+name+">")
		pos = openEnd + rel + len(closing)
	}

	return components
}
