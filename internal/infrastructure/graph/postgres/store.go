package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
	"github.com/kirillkom/graph-resolver/internal/core/ports"
)

// Store is the relational backend: exact lookups hit the name_norm index,
// fuzzy candidates come from pg_trgm similarity, semantic candidates from a
// pgvector column. Either extension may be missing; the store degrades the
// affected strategy instead of refusing to start.
type Store struct {
	db       *sql.DB
	embedder ports.Embedder
	logger   *slog.Logger

	trgmReady   bool
	vectorReady bool
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func New(ctx context.Context, db *sql.DB, embeddingDim int, embedder ports.Embedder, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
	if err := s.ensureSchema(ctx, embeddingDim); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context, embeddingDim int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026052301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS entities (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			name_norm TEXT NOT NULL,
			tags      JSONB NOT NULL DEFAULT '[]',
			is_entity BOOLEAN NOT NULL DEFAULT FALSE,
			scope     TEXT NOT NULL DEFAULT ''
		)`); err != nil {
		return fmt.Errorf("create entities table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS entities_name_norm_idx ON entities (name_norm, scope)`); err != nil {
		return fmt.Errorf("create name index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}

	s.trgmReady = s.tryExtension(ctx, "pg_trgm", `
		CREATE INDEX IF NOT EXISTS entities_name_trgm_idx
		ON entities USING gin (name_norm gin_trgm_ops)`)
	s.vectorReady = s.tryExtension(ctx, "vector", fmt.Sprintf(`
		ALTER TABLE entities ADD COLUMN IF NOT EXISTS embedding vector(%d)`, embeddingDim))

	return nil
}

// tryExtension attempts CREATE EXTENSION plus its follow-up DDL; failure
// (extension not installed, insufficient privileges) disables the strategy
// that depends on it.
func (s *Store) tryExtension(ctx context.Context, name, followUp string) bool {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE EXTENSION IF NOT EXISTS %s`, name)); err != nil {
		s.logger.Warn("extension_unavailable", "extension", name, "error", err)
		return false
	}
	if _, err := s.db.ExecContext(ctx, followUp); err != nil {
		s.logger.Warn("extension_setup_failed", "extension", name, "error", err)
		return false
	}
	return true
}

func (s *Store) LookupExact(ctx context.Context, normalizedName, tag, scope string) ([]domain.Node, error) {
	query := `SELECT id, name, tags FROM entities WHERE name_norm = $1 AND scope = $2`
	args := []any{normalizedName, scope}
	if tag != "" {
		query += ` AND tags @> $3`
		args = append(args, mustTagJSON(tag))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres exact lookup: %w", err)
	}
	defer rows.Close()

	var nodes []domain.Node
	for rows.Next() {
		node, _, err := scanNode(rows, false)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (s *Store) SearchFuzzy(ctx context.Context, escapedQuery, tag, scope string, limit int) ([]domain.FuzzyHit, error) {
	// The engine escapes terms for Lucene-style parsers; SQL parameters
	// need the literal text back.
	term := unquoteTerm(escapedQuery)

	var query string
	args := []any{term, scope}
	if s.trgmReady {
		query = `
			SELECT id, name, tags, is_entity FROM entities
			WHERE scope = $2 AND name_norm % $1`
	} else {
		query = `
			SELECT id, name, tags, is_entity FROM entities
			WHERE scope = $2 AND name_norm ILIKE '%' || $1 || '%'`
	}
	if tag != "" {
		query += ` AND tags @> $4`
	}
	if s.trgmReady {
		query += ` ORDER BY similarity(name_norm, $1) DESC`
	} else {
		query += ` ORDER BY name_norm`
	}
	query += ` LIMIT $3`
	args = append(args, limit)
	if tag != "" {
		args = append(args, mustTagJSON(tag))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres fuzzy search: %w", err)
	}
	defer rows.Close()

	var hits []domain.FuzzyHit
	for rows.Next() {
		node, isEntity, err := scanNode(rows, true)
		if err != nil {
			return nil, err
		}
		hits = append(hits, domain.FuzzyHit{Node: node, IsEntity: isEntity})
	}
	return hits, rows.Err()
}

func (s *Store) SearchSemantic(ctx context.Context, normalizedQuery, scope string, limit int) ([]domain.SemanticHit, error) {
	if !s.vectorReady {
		return nil, domain.WrapError(domain.ErrSemanticUnavailable, "postgres semantic search", errors.New("pgvector extension not installed"))
	}

	vector, err := s.embedder.EmbedQuery(ctx, normalizedQuery)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSemanticUnavailable, "embed query", err)
	}

	// <=> is cosine distance; 1 - distance restores raw cosine similarity.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, tags, 1 - (embedding <=> $1) AS similarity
		FROM entities
		WHERE embedding IS NOT NULL AND scope = $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(vector), scope, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSemanticUnavailable, "postgres vector search", err)
	}
	defer rows.Close()

	var hits []domain.SemanticHit
	for rows.Next() {
		var (
			id, name   string
			tagsJSON   []byte
			similarity float64
		)
		if err := rows.Scan(&id, &name, &tagsJSON, &similarity); err != nil {
			return nil, fmt.Errorf("scan semantic hit: %w", err)
		}
		hits = append(hits, domain.SemanticHit{
			Node:       domain.Node{ID: id, Name: name, Tags: parseTags(tagsJSON)},
			Similarity: similarity,
		})
	}
	return hits, rows.Err()
}

func (s *Store) UpsertNode(ctx context.Context, rec domain.NodeRecord) error {
	tagsJSON, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, name, name_norm, tags, is_entity, scope)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			name_norm = EXCLUDED.name_norm,
			tags = EXCLUDED.tags,
			is_entity = EXCLUDED.is_entity,
			scope = EXCLUDED.scope`,
		rec.ID, rec.Name, domain.NormalizeName(rec.Name), tagsJSON, rec.IsEntity, rec.Scope)
	if err != nil {
		return fmt.Errorf("postgres upsert node: %w", err)
	}
	return nil
}

func (s *Store) NodeName(ctx context.Context, id string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM entities WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.WrapError(domain.ErrNodeNotFound, "postgres load node", fmt.Errorf("id %s", id))
	}
	if err != nil {
		return "", fmt.Errorf("postgres load node: %w", err)
	}
	return name, nil
}

func (s *Store) WriteEmbedding(ctx context.Context, id string, vector []float32) error {
	if !s.vectorReady {
		return domain.WrapError(domain.ErrSemanticUnavailable, "postgres write embedding", errors.New("pgvector extension not installed"))
	}

	res, err := s.db.ExecContext(ctx, `UPDATE entities SET embedding = $2 WHERE id = $1`,
		id, pgvector.NewVector(vector))
	if err != nil {
		return fmt.Errorf("postgres write embedding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres write embedding rows: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNodeNotFound, "postgres write embedding", fmt.Errorf("id %s", id))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner, withEntityFlag bool) (domain.Node, bool, error) {
	var (
		id, name string
		tagsJSON []byte
		isEntity bool
	)
	dest := []any{&id, &name, &tagsJSON}
	if withEntityFlag {
		dest = append(dest, &isEntity)
	}
	if err := row.Scan(dest...); err != nil {
		return domain.Node{}, false, fmt.Errorf("scan node: %w", err)
	}
	return domain.Node{ID: id, Name: name, Tags: parseTags(tagsJSON)}, isEntity, nil
}

func parseTags(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}

func mustTagJSON(tag string) []byte {
	out, _ := json.Marshal([]string{tag})
	return out
}

// unquoteTerm undoes the engine's full-text quoting: strips one layer of
// wrapping quotes and collapses doubled internal quotes.
func unquoteTerm(term string) string {
	if len(term) >= 2 && strings.HasPrefix(term, `"`) && strings.HasSuffix(term, `"`) {
		return strings.ReplaceAll(term[1:len(term)-1], `""`, `"`)
	}
	return term
}

var _ ports.GraphStore = (*Store)(nil)
