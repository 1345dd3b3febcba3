package docdex_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker(t *testing.T) {
	t.Parallel()

	t.Run("keeps a small document as one chunk per group", func(t *testing.T) {
		t.Parallel()

		content := "# Agents\n\nText.\n\n## Creating\n\n```python\nx=1\n```\n"
		doc := docdex.ParseDocument(content, "concepts/agents.mdx")

		chunks := docdex.NewChunker().Chunk(doc, "concepts/agents.mdx")

		require.Len(t, chunks, 2)

		first := chunks[0]
		assert.Equal(t, 0, first.Index)
		assert.Equal(t, "Agents", first.SectionHierarchy)
		assert.Equal(t, 1, first.HeadingLevel)
		assert.Equal(t, "# Agents\n\nText.", first.Content)
		assert.False(t, first.HasCodeBlocks)
		assert.False(t, first.IsPartial)

		second := chunks[1]
		assert.Equal(t, 1, second.Index)
		assert.Equal(t, "Creating", second.SectionHierarchy)
		assert.Equal(t, 2, second.HeadingLevel)
		assert.True(t, second.HasCodeBlocks)
		assert.Equal(t, 1, second.CodeBlockCount)
		assert.Equal(t, docdex.ChunkTypeCodeExample, second.Type)
	})

	t.Run("groups subsections under their level-2 parent", func(t *testing.T) {
		t.Parallel()

		content := "## Parent\n\nbody\n\n### Child A\n\na\n\n### Child B\n\nb"
		doc := docdex.ParseDocument(content, "a.md")

		chunks := docdex.NewChunker().Chunk(doc, "a.md")

		require.Len(t, chunks, 1)
		assert.Equal(t, "Parent > Child A > Child B", chunks[0].SectionHierarchy)
		assert.Equal(t, 2, chunks[0].HeadingLevel)
		assert.Contains(t, chunks[0].Content, "## Parent")
		assert.Contains(t, chunks[0].Content, "### Child A")
	})

	t.Run("synthesizes a Content group for orphan deep sections", func(t *testing.T) {
		t.Parallel()

		content := "### Orphan\n\ntext here"
		doc := docdex.ParseDocument(content, "a.md")

		chunks := docdex.NewChunker().Chunk(doc, "a.md")

		require.Len(t, chunks, 1)
		assert.Equal(t, "Content > Orphan", chunks[0].SectionHierarchy)
		assert.Equal(t, 2, chunks[0].HeadingLevel)
	})

	t.Run("splits an oversized group at subsection boundaries", func(t *testing.T) {
		t.Parallel()

		big := strings.Repeat("word ", 30)
		content := "## Parent\n\n" + big + "\n\n### Child\n\n" + big
		doc := docdex.ParseDocument(content, "a.md")

		chunker := &docdex.Chunker{TargetSize: 30, MaxSize: 40, OverlapSize: 5}
		chunks := chunker.Chunk(doc, "a.md")

		require.Len(t, chunks, 2)
		assert.Equal(t, "Parent", chunks[0].SectionHierarchy)
		assert.Equal(t, "Child", chunks[1].SectionHierarchy)
		assert.False(t, chunks[0].IsPartial)
		assert.False(t, chunks[1].IsPartial)
	})

	t.Run("splits an oversized section by paragraph with overlap", func(t *testing.T) {
		t.Parallel()

		var paras []string
		for i := range 6 {
			words := make([]string, 20)
			for j := range words {
				words[j] = fmt.Sprintf("p%dw%d", i, j)
			}
			paras = append(paras, strings.Join(words, " "))
		}
		content := "## Big\n\n" + strings.Join(paras, "\n\n")
		doc := docdex.ParseDocument(content, "a.md")

		chunker := &docdex.Chunker{TargetSize: 30, MaxSize: 50, OverlapSize: 5}
		chunks := chunker.Chunk(doc, "a.md")

		require.Greater(t, len(chunks), 1)
		for i, chunk := range chunks {
			assert.True(t, chunk.IsPartial, "chunk %d", i)
			assert.Equal(t, i, chunk.Index)
			assert.True(t, strings.HasPrefix(chunk.Content, "# Big\n\n"), "chunk %d", i)
			assert.LessOrEqual(t, chunk.WordCount, 50, "chunk %d", i)
		}

		// Trailing words of one chunk reappear at the start of the next.
		tail := strings.Fields(chunks[0].Content)
		tail = tail[len(tail)-5:]
		assert.Contains(t, chunks[1].Content, strings.Join(tail, " "))
	})

	t.Run("a single indivisible paragraph may exceed the ceiling", func(t *testing.T) {
		t.Parallel()

		huge := strings.Repeat("word ", 80)
		doc := docdex.ParseDocument("## Big\n\n"+strings.TrimSpace(huge), "a.md")

		chunker := &docdex.Chunker{TargetSize: 20, MaxSize: 40, OverlapSize: 5}
		chunks := chunker.Chunk(doc, "a.md")

		require.Len(t, chunks, 1)
		assert.True(t, chunks[0].IsPartial)
		assert.Greater(t, chunks[0].WordCount, 40)
	})

	t.Run("every section word survives chunking", func(t *testing.T) {
		t.Parallel()

		content := "---\ntitle: T\n---\nIntro paragraph.\n\n# One\n\nalpha beta\n\n## Two\n\ngamma delta\n\n### Three\n\nepsilon"
		doc := docdex.ParseDocument(content, "a.md")

		chunks := docdex.NewChunker().Chunk(doc, "a.md")

		var all strings.Builder
		for _, chunk := range chunks {
			all.WriteString(chunk.Content)
			all.WriteString(" ")
		}
		for _, word := range []string{"Intro", "alpha", "beta", "gamma", "delta", "epsilon"} {
			assert.Contains(t, all.String(), word)
		}
	})

	t.Run("propagates document metadata to every chunk", func(t *testing.T) {
		t.Parallel()

		content := "---\ntitle: Agents\ndescription: About agents\n---\n# Agents\n\nbody"
		doc := docdex.ParseDocument(content, "concepts/agents.mdx")

		chunks := docdex.NewChunker().Chunk(doc, "concepts/agents.mdx")

		require.NotEmpty(t, chunks)
		chunk := chunks[0]
		assert.Equal(t, "concepts/agents.mdx", chunk.Path)
		assert.Equal(t, "Agents", chunk.Title)
		assert.Equal(t, "About agents", chunk.Description)
		assert.Equal(t, "concepts", chunk.Category)
		assert.Equal(t, "Agents", chunk.FrontMatter["title"])

		// Each chunk owns its front-matter map.
		chunk.FrontMatter["title"] = "mutated"
		assert.Equal(t, "Agents", doc.FrontMatter["title"])
	})

	t.Run("embedding text prepends the document title", func(t *testing.T) {
		t.Parallel()

		chunk := &docdex.Chunk{Title: "Agents", Content: "body text"}

		assert.Equal(t, "Agents\n\nbody text", chunk.EmbeddingText())
	})
}

func TestClassifyChunkTypes(t *testing.T) {
	t.Parallel()

	chunkFor := func(t *testing.T, content string) *docdex.Chunk {
		t.Helper()
		doc := docdex.ParseDocument(content, "a.md")
		chunks := docdex.NewChunker().Chunk(doc, "a.md")
		require.Len(t, chunks, 1)
		return chunks[0]
	}

	t.Run("code blocks win over everything", func(t *testing.T) {
		t.Parallel()
		chunk := chunkFor(t, "# Install Guide\n\nHow to install.\n\n```bash\npip install x\n```")
		assert.Equal(t, docdex.ChunkTypeCodeExample, chunk.Type)
	})

	t.Run("installation terms", func(t *testing.T) {
		t.Parallel()
		chunk := chunkFor(t, "## Getting ready\n\nFirst install the package and finish setup.")
		assert.Equal(t, docdex.ChunkTypeInstallation, chunk.Type)
	})

	t.Run("tutorial terms", func(t *testing.T) {
		t.Parallel()
		chunk := chunkFor(t, "## Walkthrough\n\nThis guide shows the flow.")
		assert.Equal(t, docdex.ChunkTypeTutorial, chunk.Type)
	})

	t.Run("top-level heading means overview", func(t *testing.T) {
		t.Parallel()
		chunk := chunkFor(t, "# Agents\n\nAgents collaborate on tasks.")
		assert.Equal(t, docdex.ChunkTypeOverview, chunk.Type)
	})

	t.Run("concept terms", func(t *testing.T) {
		t.Parallel()
		chunk := chunkFor(t, "## Memory\n\nThe core concept behind recall.")
		assert.Equal(t, docdex.ChunkTypeConcept, chunk.Type)
	})

	t.Run("reference terms", func(t *testing.T) {
		t.Parallel()
		chunk := chunkFor(t, "## Fields\n\nSee the api for details.")
		assert.Equal(t, docdex.ChunkTypeReference, chunk.Type)
	})

	t.Run("plain content", func(t *testing.T) {
		t.Parallel()
		chunk := chunkFor(t, "## Notes\n\nNothing remarkable here.")
		assert.Equal(t, docdex.ChunkTypeContent, chunk.Type)
	})
}

func TestCategoryFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "concepts", docdex.CategoryFromPath("concepts/agents.mdx"))
	assert.Equal(t, "tools", docdex.CategoryFromPath("guides/tools/search.mdx"))
	assert.Equal(t, "root", docdex.CategoryFromPath("index.mdx"))
	assert.Equal(t, "unknown", docdex.CategoryFromPath(""))
}
