package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
)

const (
	// DefaultSearchLimit is the fixed nearest-neighbor result cap.
	DefaultSearchLimit = 10
	// DefaultCooccurrenceLimit applies when the caller passes no limit.
	DefaultCooccurrenceLimit = 15

	defaultQueryTimeout = 10 * time.Second
)

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" split_words:"true" default:"10s"`
}

// Store exposes the catalog over Postgres + pgvector. All read operations are
// safe for concurrent use; the core never writes at query time.
type Store struct {
	db           *bun.DB
	queryTimeout time.Duration
}

var _ contractx.Catalog = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: catalog dsn is required", contractx.ErrValidation)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return NewWithDB(db, cfg.QueryTimeout), nil
}

// NewWithDB wraps an existing bun.DB; used by tests and the ingest command.
func NewWithDB(db *bun.DB, queryTimeout time.Duration) *Store {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &Store{
		db:           db,
		queryTimeout: queryTimeout,
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Store) DistinctProductNames(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var names []string
	err := s.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("DISTINCT name").
		Scan(ctx, &names)
	if err != nil {
		return nil, storeErr("select distinct product names", err)
	}
	return names, nil
}

// SearchByEmbedding ranks products by ascending <#> (negative inner product)
// distance to the query vector. For unit-normalized embeddings this ranking
// equals cosine ranking; ties fall back to the store's default row order,
// which is not deterministic.
func (s *Store) SearchByEmbedding(ctx context.Context, vector []float32, limit int) ([]contractx.ProductMatch, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", contractx.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var matches []contractx.ProductMatch
	if err := s.searchQuery(vector, limit).Scan(ctx, &matches); err != nil {
		return nil, storeErr("nearest-neighbor product search", err)
	}
	return matches, nil
}

func (s *Store) searchQuery(vector []float32, limit int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model((*Product)(nil)).
		Column("name", "release_date", "times_sold", "store_a", "store_b", "store_c",
			"type", "category", "franchise", "min_age", "major_category").
		OrderExpr("embedding <#> ?", pgvector.NewVector(vector)).
		Limit(limit)
}

// CooccurrencesFor matches productName against either canonical-pair column.
// An unknown name yields an empty result, not an error.
func (s *Store) CooccurrencesFor(ctx context.Context, productName string, limit int) ([]contractx.CooccurrencePair, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", contractx.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultCooccurrenceLimit
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var pairs []contractx.CooccurrencePair
	if err := s.cooccurrenceQuery(name, limit).Scan(ctx, &pairs); err != nil {
		return nil, storeErr("co-occurrence lookup", err)
	}
	return pairs, nil
}

// cooccurrenceQuery matches the name against both canonical-pair columns so a
// lookup by either partner surfaces the same row.
func (s *Store) cooccurrenceQuery(name string, limit int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model((*Cooccurrence)(nil)).
		Column("product1", "product2", "cooccurrence_count").
		Where("product1 = ?", name).
		WhereOr("product2 = ?", name).
		OrderExpr("cooccurrence_count DESC").
		Limit(limit)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", contractx.ErrStoreUnavailable, op, err)
}
