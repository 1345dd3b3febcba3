package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docdex"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ docdex.IndexStore = (*IndexStore)(nil)

const lastBuildKey = "last_build_at"

// IndexStore implements docdex.IndexStore using SQLite. One table row per
// chunk; the embedding vector is stored as a JSON numeric array, which
// round-trips float32 values losslessly. The last successful build time is
// kept as an explicit stored value rather than inferred from file metadata.
type IndexStore struct {
	db *DB
}

// NewIndexStore creates a new IndexStore.
func NewIndexStore(db *DB) *IndexStore {
	return &IndexStore{db: db}
}

// hashContent computes xxHash of content and returns a hex string.
func hashContent(content string) string {
	h := xxhash.Sum64String(content)
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(h >> (56 - 8*i))
	}
	return hex.EncodeToString(b)
}

// SaveIndex atomically replaces the persisted rows and records the build
// timestamp. Row IDs are assigned here.
func (s *IndexStore) SaveIndex(ctx context.Context, rows []*docdex.IndexRow, builtAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_rows`); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_rows (
			id, position, path, title, description, category,
			chunk_index, chunk_type, section_hierarchy, heading_level,
			content, content_hash, word_count,
			code_block_count, special_component_count, is_partial,
			front_matter, embedding
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for position, row := range rows {
		if row.ID == "" {
			row.ID = uuid.New().String()
		}

		embedding, err := json.Marshal(row.Embedding)
		if err != nil {
			return fmt.Errorf("serialize embedding: %w", err)
		}
		frontMatter, err := json.Marshal(row.Chunk.FrontMatter)
		if err != nil {
			return fmt.Errorf("serialize front-matter: %w", err)
		}

		chunk := row.Chunk
		if _, err := stmt.ExecContext(ctx,
			row.ID, position, chunk.Path, chunk.Title, chunk.Description, chunk.Category,
			chunk.Index, string(chunk.Type), chunk.SectionHierarchy, chunk.HeadingLevel,
			chunk.Content, hashContent(chunk.Content), chunk.WordCount,
			chunk.CodeBlockCount, chunk.SpecialComponentCount, chunk.IsPartial,
			string(frontMatter), string(embedding),
		); err != nil {
			return fmt.Errorf("insert row %d: %w", position, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastBuildKey, builtAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record build time: %w", err)
	}

	return tx.Commit()
}

// LoadIndex returns all persisted rows in build order and the recorded
// build timestamp.
func (s *IndexStore) LoadIndex(ctx context.Context) ([]*docdex.IndexRow, time.Time, error) {
	builtAt, err := s.LastBuildTime(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	result, err := s.db.QueryContext(ctx, `
		SELECT id, path, title, description, category,
			chunk_index, chunk_type, section_hierarchy, heading_level,
			content, word_count,
			code_block_count, special_component_count, is_partial,
			front_matter, embedding
		FROM index_rows
		ORDER BY position
	`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer result.Close()

	var rows []*docdex.IndexRow
	for result.Next() {
		var row docdex.IndexRow
		var chunkType, frontMatter, embedding string

		if err := result.Scan(
			&row.ID, &row.Chunk.Path, &row.Chunk.Title, &row.Chunk.Description, &row.Chunk.Category,
			&row.Chunk.Index, &chunkType, &row.Chunk.SectionHierarchy, &row.Chunk.HeadingLevel,
			&row.Chunk.Content, &row.Chunk.WordCount,
			&row.Chunk.CodeBlockCount, &row.Chunk.SpecialComponentCount, &row.Chunk.IsPartial,
			&frontMatter, &embedding,
		); err != nil {
			return nil, time.Time{}, err
		}

		row.Chunk.Type = docdex.ChunkType(chunkType)
		row.Chunk.HasCodeBlocks = row.Chunk.CodeBlockCount > 0
		row.Chunk.HasSpecialComponents = row.Chunk.SpecialComponentCount > 0

		if err := json.Unmarshal([]byte(frontMatter), &row.Chunk.FrontMatter); err != nil {
			return nil, time.Time{}, fmt.Errorf("deserialize front-matter: %w", err)
		}
		if err := json.Unmarshal([]byte(embedding), &row.Embedding); err != nil {
			return nil, time.Time{}, fmt.Errorf("deserialize embedding: %w", err)
		}

		rows = append(rows, &row)
	}
	if err := result.Err(); err != nil {
		return nil, time.Time{}, err
	}

	return rows, builtAt, nil
}

// LastBuildTime returns the recorded build timestamp.
func (s *IndexStore) LastBuildTime(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM index_meta WHERE key = ?
	`, lastBuildKey).Scan(&value)

	if err == sql.ErrNoRows {
		return time.Time{}, docdex.Errorf(docdex.ENOTFOUND, "no index build recorded")
	}
	if err != nil {
		return time.Time{}, err
	}

	builtAt, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse build time: %w", err)
	}
	return builtAt, nil
}
