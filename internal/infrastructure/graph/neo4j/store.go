package neo4j

import (
	"context"
	"fmt"
	"log/slog"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
	"github.com/kirillkom/graph-resolver/internal/core/ports"
)

const (
	fulltextIndexName = "entity_names"
	vectorIndexName   = "entity_embeddings"
)

// Store is the graph-native backend: exact lookups hit the name_norm index,
// fuzzy candidates come from the Lucene full-text index (hence the quoted
// queries it receives), and semantic candidates from the vector index.
type Store struct {
	driver   neo4jdriver.DriverWithContext
	database string
	embedder ports.Embedder
	logger   *slog.Logger

	// vectorIndexReady is decided once at schema setup; servers without
	// vector index support degrade to exact/fuzzy only.
	vectorIndexReady bool
}

type Config struct {
	URI          string
	Username     string
	Password     string
	Database     string
	EmbeddingDim int
}

func Open(ctx context.Context, cfg Config, embedder ports.Embedder, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4jdriver.NewDriverWithContext(cfg.URI, neo4jdriver.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	s := &Store{
		driver:   driver,
		database: cfg.Database,
		embedder: embedder,
		logger:   logger,
	}
	if err := s.ensureSchema(ctx, cfg.EmbeddingDim); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context, embeddingDim int) error {
	statements := []string{
		`CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE`,
		`CREATE INDEX entity_name_norm IF NOT EXISTS FOR (n:Entity) ON (n.name_norm)`,
		fmt.Sprintf(`CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:Entity) ON EACH [n.name]`, fulltextIndexName),
	}
	for _, stmt := range statements {
		if _, err := s.run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	vectorStmt := fmt.Sprintf(
		"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:Entity) ON (n.embedding) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		vectorIndexName, embeddingDim,
	)
	if _, err := s.run(ctx, vectorStmt, nil); err != nil {
		// Older servers have no vector indexes; semantic search reports
		// itself unavailable instead of blocking startup.
		s.logger.Warn("vector_index_unavailable", "error", err)
		s.vectorIndexReady = false
		return nil
	}
	s.vectorIndexReady = true
	return nil
}

func (s *Store) LookupExact(ctx context.Context, normalizedName, tag, scope string) ([]domain.Node, error) {
	query := `
		MATCH (n:Entity)
		WHERE n.name_norm = $name AND coalesce(n.scope, '') = $scope`
	params := map[string]any{"name": normalizedName, "scope": scope}
	if tag != "" {
		query += ` AND $tag IN n.tags`
		params["tag"] = tag
	}
	query += `
		RETURN n.id AS id, n.name AS name, n.tags AS tags`

	result, err := s.run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j exact lookup: %w", err)
	}

	nodes := make([]domain.Node, 0, len(result.Records))
	for _, record := range result.Records {
		nodes = append(nodes, nodeFromRecord(record))
	}
	return nodes, nil
}

func (s *Store) SearchFuzzy(ctx context.Context, escapedQuery, tag, scope string, limit int) ([]domain.FuzzyHit, error) {
	query := `
		CALL db.index.fulltext.queryNodes($index, $query) YIELD node, score
		WHERE coalesce(node.scope, '') = $scope`
	params := map[string]any{
		"index": fulltextIndexName,
		"query": escapedQuery,
		"scope": scope,
		"limit": limit,
	}
	if tag != "" {
		query += ` AND $tag IN node.tags`
		params["tag"] = tag
	}
	query += `
		RETURN node.id AS id, node.name AS name, node.tags AS tags,
		       coalesce(node.is_entity, false) AS is_entity
		LIMIT $limit`

	result, err := s.run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j fulltext search: %w", err)
	}

	hits := make([]domain.FuzzyHit, 0, len(result.Records))
	for _, record := range result.Records {
		isEntity, _, _ := neo4jdriver.GetRecordValue[bool](record, "is_entity")
		hits = append(hits, domain.FuzzyHit{Node: nodeFromRecord(record), IsEntity: isEntity})
	}
	return hits, nil
}

func (s *Store) SearchSemantic(ctx context.Context, normalizedQuery, scope string, limit int) ([]domain.SemanticHit, error) {
	if !s.vectorIndexReady {
		return nil, domain.WrapError(domain.ErrSemanticUnavailable, "neo4j semantic search", fmt.Errorf("vector index %s not created", vectorIndexName))
	}

	vector, err := s.embedder.EmbedQuery(ctx, normalizedQuery)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSemanticUnavailable, "embed query", err)
	}

	query := `
		CALL db.index.vector.queryNodes($index, $limit, $vector) YIELD node, score
		WHERE coalesce(node.scope, '') = $scope
		RETURN node.id AS id, node.name AS name, node.tags AS tags, score`
	params := map[string]any{
		"index":  vectorIndexName,
		"limit":  limit,
		"vector": toFloat64s(vector),
		"scope":  scope,
	}

	result, err := s.run(ctx, query, params)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSemanticUnavailable, "neo4j vector search", err)
	}

	hits := make([]domain.SemanticHit, 0, len(result.Records))
	for _, record := range result.Records {
		score, _, _ := neo4jdriver.GetRecordValue[float64](record, "score")
		hits = append(hits, domain.SemanticHit{
			Node: nodeFromRecord(record),
			// The index reports cosine similarity rescaled to [0, 1] as
			// (cos + 1) / 2; undo that so callers see raw cosine.
			Similarity: 2*score - 1,
		})
	}
	return hits, nil
}

func (s *Store) UpsertNode(ctx context.Context, rec domain.NodeRecord) error {
	query := `
		MERGE (n:Entity {id: $id})
		SET n.name = $name,
		    n.name_norm = $name_norm,
		    n.tags = $tags,
		    n.is_entity = $is_entity,
		    n.scope = $scope`
	params := map[string]any{
		"id":        rec.ID,
		"name":      rec.Name,
		"name_norm": domain.NormalizeName(rec.Name),
		"tags":      rec.Tags,
		"is_entity": rec.IsEntity,
		"scope":     rec.Scope,
	}
	if _, err := s.run(ctx, query, params); err != nil {
		return fmt.Errorf("neo4j upsert node: %w", err)
	}
	return nil
}

func (s *Store) NodeName(ctx context.Context, id string) (string, error) {
	result, err := s.run(ctx, `MATCH (n:Entity {id: $id}) RETURN n.name AS name`, map[string]any{"id": id})
	if err != nil {
		return "", fmt.Errorf("neo4j load node: %w", err)
	}
	if len(result.Records) == 0 {
		return "", domain.WrapError(domain.ErrNodeNotFound, "neo4j load node", fmt.Errorf("id %s", id))
	}
	name, _, _ := neo4jdriver.GetRecordValue[string](result.Records[0], "name")
	return name, nil
}

func (s *Store) WriteEmbedding(ctx context.Context, id string, vector []float32) error {
	query := `
		MATCH (n:Entity {id: $id})
		CALL db.create.setNodeVectorProperty(n, 'embedding', $vector)
		RETURN count(n) AS updated`
	params := map[string]any{"id": id, "vector": toFloat64s(vector)}

	result, err := s.run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("neo4j write embedding: %w", err)
	}
	if len(result.Records) > 0 {
		if updated, _, _ := neo4jdriver.GetRecordValue[int64](result.Records[0], "updated"); updated == 0 {
			return domain.WrapError(domain.ErrNodeNotFound, "neo4j write embedding", fmt.Errorf("id %s", id))
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) run(ctx context.Context, query string, params map[string]any) (*neo4jdriver.EagerResult, error) {
	return neo4jdriver.ExecuteQuery(ctx, s.driver, query, params,
		neo4jdriver.EagerResultTransformer,
		neo4jdriver.ExecuteQueryWithDatabase(s.database),
	)
}

func nodeFromRecord(record *neo4jdriver.Record) domain.Node {
	id, _, _ := neo4jdriver.GetRecordValue[string](record, "id")
	name, _, _ := neo4jdriver.GetRecordValue[string](record, "name")

	var tags []string
	if raw, ok := record.Get("tags"); ok {
		if list, ok := raw.([]any); ok {
			tags = make([]string, 0, len(list))
			for _, item := range list {
				if tag, ok := item.(string); ok {
					tags = append(tags, tag)
				}
			}
		}
	}
	return domain.Node{ID: id, Name: name, Tags: tags}
}

func toFloat64s(vector []float32) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = float64(v)
	}
	return out
}

var _ ports.GraphStore = (*Store)(nil)
