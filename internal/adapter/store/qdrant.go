package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"faqbot/internal/adapter/cache"
	"faqbot/internal/domain"
)

const (
	DefaultQdrantPort = 6334

	payloadNamespace = "namespace"
	payloadRecordID  = "record_id"
	payloadContent   = "page_content"
	payloadSource    = "source"
	payloadChunkID   = "chunk_id"
)

// QdrantConfig addresses a hosted index. Each collection is stored as a
// namespace inside the single index.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	Index  string

	// ReadyDelay is slept after the index is created so the cluster can
	// finish allocating it.
	ReadyDelay time.Duration
}

// QdrantStore implements port.VectorStore on a Qdrant index over gRPC.
// Scores are cosine similarity, higher is better.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	embedder    *cache.CachedEmbedder
	cfg         QdrantConfig
	opts        options
}

// NewQdrantStore dials the cluster. TLS is used whenever an API key is set.
func NewQdrantStore(cfg QdrantConfig, embedder *cache.CachedEmbedder, opts ...Option) (*QdrantStore, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultQdrantPort
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("qdrant: index name is required")
	}

	dialOpts := []grpc.DialOption{}
	if cfg.APIKey != "" {
		dialOpts = append(dialOpts,
			grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})),
			grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)),
		)
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		embedder:    embedder,
		cfg:         cfg,
		opts:        newOptions(options{batchSize: DefaultBatchSize, batchPause: DefaultBatchPause}, opts...),
	}, nil
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// CreateCollection makes sure the backing index exists. Namespaces need no
// creation of their own.
func (s *QdrantStore) CreateCollection(ctx context.Context, name string) error {
	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: s.cfg.Index})
	if err != nil {
		return fmt.Errorf("qdrant: check index: %w", err)
	}
	if resp.GetResult().GetExists() {
		return nil
	}

	slog.Info("creating index", "index", s.cfg.Index, "dimension", s.embedder.Dimension())
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.cfg.Index,
		VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
			Size:     uint64(s.embedder.Dimension()),
			Distance: pb.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create index: %w", err)
	}

	_, err = s.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
		CollectionName: s.cfg.Index,
		Wait:           pb.PtrOf(true),
		FieldName:      payloadNamespace,
		FieldType:      pb.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("qdrant: index namespace field: %w", err)
	}

	if s.cfg.ReadyDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.ReadyDelay):
		}
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	records, err := buildRecords(ctx, s.embedder, collection, chunks)
	if err != nil {
		return err
	}
	if err := s.CreateCollection(ctx, collection); err != nil {
		return err
	}

	return writeBatches(ctx, records, s.opts.batchSize, s.opts.batchPause, func(ctx context.Context, batch []Record) error {
		points := make([]*pb.PointStruct, len(batch))
		for i, r := range batch {
			points[i] = &pb.PointStruct{
				Id:      pb.NewIDUUID(pointID(r.ID)),
				Vectors: pb.NewVectors(r.Values...),
				Payload: map[string]*pb.Value{
					payloadNamespace: pb.NewValueString(collection),
					payloadRecordID:  pb.NewValueString(r.ID),
					payloadContent:   pb.NewValueString(r.Metadata.PageContent),
					payloadSource:    pb.NewValueString(r.Metadata.Source),
					payloadChunkID:   pb.NewValueString(r.Metadata.ChunkID),
				},
			}
		}

		_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: s.cfg.Index,
			Wait:           pb.PtrOf(true),
			Points:         points,
		})
		return err
	})
}

// Query searches one namespace. Remote failures are logged and reported as
// an empty result.
func (s *QdrantStore) Query(ctx context.Context, collection, text string, k int) ([]domain.QueryResult, error) {
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}

	vec, err := s.embedder.EmbedOne(ctx, text)
	if err != nil {
		slog.Error("error embedding query", "collection", collection, "error", err)
		return []domain.QueryResult{}, nil
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.cfg.Index,
		Vector:         vec,
		Filter:         namespaceFilter(collection),
		Limit:          uint64(k),
		WithPayload:    pb.NewWithPayload(true),
	})
	if err != nil {
		slog.Error("error querying index", "index", s.cfg.Index, "collection", collection, "error", err)
		return []domain.QueryResult{}, nil
	}

	results := make([]domain.QueryResult, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		payload := pt.GetPayload()
		chunkID, _ := strconv.Atoi(payload[payloadChunkID].GetStringValue())
		results = append(results, domain.QueryResult{
			Chunk: domain.Chunk{
				Text: payload[payloadContent].GetStringValue(),
				Metadata: domain.ChunkMetadata{
					Source:  payload[payloadSource].GetStringValue(),
					ChunkID: chunkID,
				},
			},
			Score: float64(pt.GetScore()),
		})
	}
	return results, nil
}

func (s *QdrantStore) Count(ctx context.Context, collection string) (int, error) {
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.cfg.Index,
		Filter:         namespaceFilter(collection),
		Exact:          pb.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count %s: %w", collection, err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// DeleteCollection removes every point in the namespace.
func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.cfg.Index,
		Wait:           pb.PtrOf(true),
		Points:         pb.NewPointsSelectorFilter(namespaceFilter(name)),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete %s: %w", name, err)
	}
	return nil
}

// Save is a no-op, the hosted index is already durable.
func (s *QdrantStore) Save(path string) error { return nil }

// Load is a no-op, the hosted index is already durable.
func (s *QdrantStore) Load(path string) error { return nil }

func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

func namespaceFilter(collection string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{pb.NewMatchKeyword(payloadNamespace, collection)},
	}
}

// pointID maps a record id onto the UUID space Qdrant requires. The mapping
// is deterministic so re-ingesting overwrites.
func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String()
}
