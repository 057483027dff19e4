package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
)

// Init creates the dbo schema, the pgvector extension, and both tables.
// Idempotent; run once before bulk loading.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS dbo"); err != nil {
		return storeErr("create schema", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return storeErr("create vector extension", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*Product)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return storeErr("create products table", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*Cooccurrence)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return storeErr("create cooccurrences table", err)
	}
	return nil
}

// canonicalPair returns the two names in lexicographic order so that (A,B)
// and (B,A) map to the same row.
func canonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// NormalizeCooccurrences canonicalizes pair order and drops duplicate pairs,
// keeping the first occurrence. The unique constraint would also reject
// duplicates, but sorting here keeps the store canonical regardless of the
// ingestion path.
func NormalizeCooccurrences(rows []Cooccurrence) []Cooccurrence {
	seen := make(map[[2]string]struct{}, len(rows))
	out := make([]Cooccurrence, 0, len(rows))
	for _, row := range rows {
		p1, p2 := canonicalPair(strings.TrimSpace(row.Product1), strings.TrimSpace(row.Product2))
		key := [2]string{p1, p2}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		row.Product1 = p1
		row.Product2 = p2
		out = append(out, row)
	}
	return out
}

// ReadCooccurrenceCSV parses rows of product1,product2,cooccurrence_count.
// A header row is detected by a non-numeric count column and skipped.
func ReadCooccurrenceCSV(r io.Reader) ([]Cooccurrence, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3

	var rows []Cooccurrence
	for lineNo := 1; ; lineNo++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read co-occurrence csv line %d: %v", contractx.ErrInvalidInput, lineNo, err)
		}

		count, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			if lineNo == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: invalid count %q at line %d", contractx.ErrInvalidInput, record[2], lineNo)
		}
		if count < 0 {
			return nil, fmt.Errorf("%w: negative count at line %d", contractx.ErrInvalidInput, lineNo)
		}

		rows = append(rows, Cooccurrence{
			Product1:          strings.TrimSpace(record[0]),
			Product2:          strings.TrimSpace(record[1]),
			CooccurrenceCount: count,
		})
	}
	return rows, nil
}

// InsertCooccurrences normalizes and bulk-inserts co-purchase rows.
// Conflicting canonical pairs already present in the table are skipped.
func (s *Store) InsertCooccurrences(ctx context.Context, rows []Cooccurrence) error {
	normalized := NormalizeCooccurrences(rows)
	if len(normalized) == 0 {
		return nil
	}

	if _, err := s.db.NewInsert().
		Model(&normalized).
		On("CONFLICT (product1, product2) DO NOTHING").
		Exec(ctx); err != nil {
		return storeErr("insert cooccurrences", err)
	}
	return nil
}

func (s *Store) InsertProducts(ctx context.Context, products []*Product) error {
	if len(products) == 0 {
		return nil
	}
	if _, err := s.db.NewInsert().
		Model(&products).
		Exec(ctx); err != nil {
		return storeErr("insert products", err)
	}
	return nil
}

// ProductRecord mirrors the products JSON file used for bulk loading.
// Embedding/Tokens may be absent and are backfilled before insert.
type ProductRecord struct {
	Name          string    `json:"name"`
	ReleaseDate   string    `json:"release_date,omitempty"`
	TimesSold     int       `json:"times_sold"`
	StoreA        int       `json:"store_a"`
	StoreB        int       `json:"store_b"`
	StoreC        int       `json:"store_c"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	Franchise     string    `json:"franchise"`
	MinAge        int       `json:"min_age"`
	MajorCategory string    `json:"major_category"`
	Text          string    `json:"text"`
	Tokens        int       `json:"tokens,omitempty"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// EnsureEmbeddings fills in missing embeddings via the embedding client and
// reports whether any record changed (so callers can rewrite the source file
// and skip the API next run).
func EnsureEmbeddings(ctx context.Context, embedder contractx.Embedder, records []ProductRecord) (bool, error) {
	changed := false
	for i := range records {
		if len(records[i].Embedding) > 0 {
			continue
		}
		tokens, vector, err := embedder.Embed(ctx, records[i].Text)
		if err != nil {
			return changed, fmt.Errorf("embed product %q: %w", records[i].Name, err)
		}
		records[i].Tokens = tokens
		records[i].Embedding = vector
		changed = true
	}
	return changed, nil
}

// ToModel validates a record and converts it to the bun model.
func (r ProductRecord) ToModel() (*Product, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", contractx.ErrInvalidInput)
	}
	if strings.TrimSpace(r.Text) == "" {
		return nil, fmt.Errorf("%w: product %q has no descriptive text", contractx.ErrInvalidInput, name)
	}
	if len(r.Embedding) != EmbeddingDim {
		return nil, fmt.Errorf("%w: product %q embedding has dim %d, want %d",
			contractx.ErrInvalidInput, name, len(r.Embedding), EmbeddingDim)
	}

	var releaseDate *time.Time
	if trimmed := strings.TrimSpace(r.ReleaseDate); trimmed != "" {
		parsed, err := time.Parse("2006-01-02", trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: product %q release_date %q: %v",
				contractx.ErrInvalidInput, name, trimmed, err)
		}
		releaseDate = &parsed
	}

	return &Product{
		Name:          name,
		ReleaseDate:   releaseDate,
		TimesSold:     r.TimesSold,
		StoreA:        r.StoreA,
		StoreB:        r.StoreB,
		StoreC:        r.StoreC,
		Type:          r.Type,
		Category:      r.Category,
		Franchise:     r.Franchise,
		MinAge:        r.MinAge,
		MajorCategory: r.MajorCategory,
		Text:          r.Text,
		Tokens:        r.Tokens,
		Embedding:     pgvector.NewVector(r.Embedding),
	}, nil
}
