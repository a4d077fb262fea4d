package qdrant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// payloadKey holds the original entry key next to the metadata.
const payloadKey = "key"

type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeletePoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

type collectionsAPI interface {
	CollectionExists(
		ctx context.Context, in *pb.CollectionExistsRequest, opts ...grpc.CallOption,
	) (*pb.CollectionExistsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

type healthAPI interface {
	HealthCheck(ctx context.Context, in *pb.HealthCheckRequest, opts ...grpc.CallOption) (*pb.HealthCheckReply, error)
}

// Config holds Qdrant connection and collection parameters.
type Config struct {
	Host       string
	Port       int
	Collection string
	Dimensions int
}

// Repo implements the vector index port on a Qdrant collection over gRPC.
// Point ids are UUIDv5 of the entry key, since Qdrant only accepts UUID or integer ids.
type Repo struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	health      healthAPI
	collection  string
	dim         int
}

// New dials Qdrant. The connection is lazy: the first RPC establishes it.
func New(cfg Config) (*Repo, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &Repo{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		health:      pb.NewQdrantClient(conn),
		collection:  cfg.Collection,
		dim:         cfg.Dimensions,
	}, nil
}

// PointID maps an entry key to its deterministic point id.
func PointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// EnsureIndex creates the collection (cosine distance) if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	resp, err := r.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: r.collection})
	if err != nil {
		return fmt.Errorf("check collection %s: %w", r.collection, err)
	}
	if resp.GetResult().GetExists() {
		return nil
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{
			Size:     uint64(r.dim), //nolint:gosec // dimensions validated positive by config
			Distance: pb.Distance_Cosine,
		}}},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.collection, err)
	}
	return nil
}

// Upsert replaces the point for key. Qdrant overwrites the whole payload on upsert.
func (r *Repo) Upsert(ctx context.Context, key string, vector []float32, metadata map[string]any) error {
	if len(vector) == 0 {
		return fmt.Errorf("upsert %s: empty vector", key)
	}
	payload := make(map[string]*pb.Value, len(metadata)+1)
	for k, v := range metadata {
		if pv := toValue(v); pv != nil {
			payload[k] = pv
		}
	}
	payload[payloadKey] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: key}}

	wait := true
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(key)}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}}},
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("upsert point %s: %w", key, err)
	}
	return nil
}

// Delete removes the point for key. Deleting an unknown id succeeds in Qdrant.
func (r *Repo) Delete(ctx context.Context, key string) error {
	wait := true
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{PointsSelectorOneOf: &pb.PointsSelector_Points{
			Points: &pb.PointsIdsList{Ids: []*pb.PointId{
				{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(key)}},
			}},
		}},
	})
	if err != nil {
		return fmt.Errorf("delete point %s: %w", key, err)
	}
	return nil
}

// Query returns up to topK nearest points, best first, with payload as metadata.
func (r *Repo) Query(
	ctx context.Context, vector []float32, topK int, filters filter.Expression,
) ([]result.Hit, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(max(topK, 0)), //nolint:gosec // clamped non-negative
		Filter:         buildFilter(filters),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.collection, err)
	}

	hits := make([]result.Hit, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		meta := make(map[string]any, len(pt.GetPayload()))
		for k, v := range pt.GetPayload() {
			meta[k] = fromValue(v)
		}
		key, _ := meta[payloadKey].(string)
		delete(meta, payloadKey)

		id, ok := meta[style.MetaStyleID].(int64)
		if !ok {
			if id, ok = idFromKey(key); !ok {
				continue
			}
		}
		score := min(max(float64(pt.GetScore()), 0), 1)
		hits = append(hits, result.New(id, key, score, meta))
	}
	return hits, nil
}

// Check verifies the server answers and the collection exists.
func (r *Repo) Check(ctx context.Context) error {
	if _, err := r.health.HealthCheck(ctx, &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	resp, err := r.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: r.collection})
	if err != nil {
		return fmt.Errorf("check collection %s: %w", r.collection, err)
	}
	if !resp.GetResult().GetExists() {
		return fmt.Errorf("collection %s does not exist", r.collection)
	}
	return nil
}

// Close releases the gRPC connection.
func (r *Repo) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func buildFilter(expr filter.Expression) *pb.Filter {
	if expr.IsEmpty() {
		return nil
	}
	must := make([]*pb.Condition, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		must = append(must, &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
			Key:   c.Key(),
			Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: c.Match()}},
		}}})
	}
	return &pb.Filter{Must: must}
}

func toValue(v any) *pb.Value {
	switch tv := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	case []string:
		vals := make([]*pb.Value, len(tv))
		for i, s := range tv {
			vals[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	}
	return nil
}

func fromValue(v *pb.Value) any {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_IntegerValue:
		return k.IntegerValue
	case *pb.Value_DoubleValue:
		return k.DoubleValue
	case *pb.Value_BoolValue:
		return k.BoolValue
	case *pb.Value_ListValue:
		out := make([]string, 0, len(k.ListValue.GetValues()))
		for _, e := range k.ListValue.GetValues() {
			out = append(out, e.GetStringValue())
		}
		return out
	}
	return nil
}

func idFromKey(key string) (int64, bool) {
	i := strings.LastIndexByte(key, '_')
	if i < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(key[i+1:], 10, 64)
	return id, err == nil
}
