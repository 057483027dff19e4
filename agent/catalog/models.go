package catalog

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
)

// EmbeddingDim is the vector dimension of the embedding model in use
// (OpenAI text-embedding, 1536 dims).
const EmbeddingDim = 1536

// Product is one catalog item. Embedding and Tokens are derived from Text by
// the embedding client during ingestion; the core treats rows as read-only.
type Product struct {
	bun.BaseModel `bun:"table:dbo.products,alias:p"`

	ID            int64           `bun:"id,pk,autoincrement"`
	Name          string          `bun:"name,notnull"`
	ReleaseDate   *time.Time      `bun:"release_date"`
	TimesSold     int             `bun:"times_sold"`
	StoreA        int             `bun:"store_a"`
	StoreB        int             `bun:"store_b"`
	StoreC        int             `bun:"store_c"`
	Type          string          `bun:"type,type:varchar(100)"`
	Category      string          `bun:"category,type:varchar(100)"`
	Franchise     string          `bun:"franchise,type:varchar(100)"`
	MinAge        int             `bun:"min_age"`
	MajorCategory string          `bun:"major_category,type:varchar(100)"`
	Text          string          `bun:"text,notnull"`
	Tokens        int             `bun:"tokens"`
	Embedding     pgvector.Vector `bun:"embedding,type:vector(1536)"`
}

// Cooccurrence is an undirected co-purchase count. Product1/Product2 are kept
// in canonical (lexicographic) order so (A,B) and (B,A) collapse to one row;
// the unique constraint backs that up against non-canonical writers.
type Cooccurrence struct {
	bun.BaseModel `bun:"table:dbo.cooccurrences,alias:c"`

	ID                int64  `bun:"id,pk,autoincrement"`
	Product1          string `bun:"product1,notnull,unique:uq_product_pair"`
	Product2          string `bun:"product2,notnull,unique:uq_product_pair"`
	CooccurrenceCount int    `bun:"cooccurrence_count,notnull"`
}
