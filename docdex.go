// Package docdex makes long-form structured documentation searchable by
// semantic similarity. It parses markdown-with-embedded-components into
// typed document trees, derives bounded-size embedding-ready chunks from
// them, and ranks chunks against natural language queries by cosine
// similarity over externally computed embedding vectors.
//
// This package contains domain types, pure algorithms, and interfaces
// following Ben Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., sqlite/,
// openai/, github/).
package docdex
