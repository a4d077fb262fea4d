package qdrant

import (
	"context"
	"errors"
	"slices"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
)

type fakePoints struct {
	upserted *pb.UpsertPoints
	deleted  *pb.DeletePoints
	searched *pb.SearchPoints
	resp     *pb.SearchResponse
	err      error
}

func (f *fakePoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.upserted = in
	return &pb.PointsOperationResponse{}, f.err
}

func (f *fakePoints) Delete(_ context.Context, in *pb.DeletePoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.deleted = in
	return &pb.PointsOperationResponse{}, f.err
}

func (f *fakePoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.searched = in
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeCollections struct {
	exists  bool
	created *pb.CreateCollection
}

func (f *fakeCollections) CollectionExists(
	context.Context, *pb.CollectionExistsRequest, ...grpc.CallOption,
) (*pb.CollectionExistsResponse, error) {
	return &pb.CollectionExistsResponse{Result: &pb.CollectionExists{Exists: f.exists}}, nil
}

func (f *fakeCollections) Create(
	_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption,
) (*pb.CollectionOperationResponse, error) {
	f.created = in
	return &pb.CollectionOperationResponse{Result: true}, nil
}

type fakeHealth struct{ err error }

func (f *fakeHealth) HealthCheck(context.Context, *pb.HealthCheckRequest, ...grpc.CallOption) (*pb.HealthCheckReply, error) {
	return &pb.HealthCheckReply{}, f.err
}

func newTestRepo(p *fakePoints, c *fakeCollections) *Repo {
	return &Repo{points: p, collections: c, health: &fakeHealth{}, collection: "styles", dim: 4}
}

func TestPointID_Deterministic(t *testing.T) {
	if PointID("style_1") != PointID("style_1") {
		t.Error("same key produced different ids")
	}
	if PointID("style_1") == PointID("style_2") {
		t.Error("different keys collided")
	}
}

func TestUpsert_Payload(t *testing.T) {
	p := &fakePoints{}
	r := newTestRepo(p, &fakeCollections{})

	err := r.Upsert(context.Background(), "style_5", []float32{0.1, 0.2}, map[string]any{
		"style_id": int64(5),
		"length":   "LONG",
		"tags":     []string{"boho"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.upserted.GetCollectionName() != "styles" || !p.upserted.GetWait() {
		t.Errorf("request = %+v", p.upserted)
	}
	pt := p.upserted.GetPoints()[0]
	if pt.GetId().GetUuid() != PointID("style_5") {
		t.Errorf("id = %s", pt.GetId().GetUuid())
	}
	pl := pt.GetPayload()
	if pl["key"].GetStringValue() != "style_5" {
		t.Errorf("key payload = %v", pl["key"])
	}
	if pl["style_id"].GetIntegerValue() != 5 || pl["length"].GetStringValue() != "LONG" {
		t.Errorf("payload = %v", pl)
	}
	if vals := pl["tags"].GetListValue().GetValues(); len(vals) != 1 || vals[0].GetStringValue() != "boho" {
		t.Errorf("tags payload = %v", pl["tags"])
	}
}

func TestUpsert_Error(t *testing.T) {
	rpcErr := errors.New("unavailable")
	r := newTestRepo(&fakePoints{err: rpcErr}, &fakeCollections{})
	if err := r.Upsert(context.Background(), "style_1", []float32{1}, nil); !errors.Is(err, rpcErr) {
		t.Fatalf("expected wrapped rpc error, got %v", err)
	}
	if err := r.Upsert(context.Background(), "style_1", nil, nil); err == nil {
		t.Fatal("expected error for empty vector")
	}
}

func TestDelete(t *testing.T) {
	p := &fakePoints{}
	r := newTestRepo(p, &fakeCollections{})
	if err := r.Delete(context.Background(), "style_3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := p.deleted.GetPoints().GetPoints().GetIds()
	if len(ids) != 1 || ids[0].GetUuid() != PointID("style_3") {
		t.Errorf("ids = %v", ids)
	}
}

func TestQuery(t *testing.T) {
	p := &fakePoints{resp: &pb.SearchResponse{Result: []*pb.ScoredPoint{
		{
			Score: 0.9,
			Payload: map[string]*pb.Value{
				"key":      {Kind: &pb.Value_StringValue{StringValue: "style_8"}},
				"style_id": {Kind: &pb.Value_IntegerValue{IntegerValue: 8}},
				"title":    {Kind: &pb.Value_StringValue{StringValue: "Lob"}},
			},
		},
		{
			Score: 0.8,
			Payload: map[string]*pb.Value{
				"key": {Kind: &pb.Value_StringValue{StringValue: "style_11"}},
			},
		},
		{Score: 0.7},
	}}}
	r := newTestRepo(p, &fakeCollections{})
	f, _ := filter.FromMap(map[string]string{"texture": "WAVY"})

	hits, err := r.Query(context.Background(), []float32{1}, 3, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.searched.GetLimit() != 3 {
		t.Errorf("limit = %d", p.searched.GetLimit())
	}
	must := p.searched.GetFilter().GetMust()
	if len(must) != 1 || must[0].GetField().GetKey() != "texture" || must[0].GetField().GetMatch().GetKeyword() != "WAVY" {
		t.Errorf("filter = %v", p.searched.GetFilter())
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].ID() != 8 || hits[0].Key() != "style_8" || hits[0].Metadata()["title"] != "Lob" {
		t.Errorf("hit[0] = %d %s %v", hits[0].ID(), hits[0].Key(), hits[0].Metadata())
	}
	if _, ok := hits[0].Metadata()["key"]; ok {
		t.Error("key should not leak into metadata")
	}
	if hits[1].ID() != 11 {
		t.Errorf("hit[1] id = %d, want 11 from key", hits[1].ID())
	}
}

func TestQuery_NoFilter(t *testing.T) {
	p := &fakePoints{resp: &pb.SearchResponse{}}
	r := newTestRepo(p, &fakeCollections{})
	if _, err := r.Query(context.Background(), []float32{1}, 2, filter.Expression{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.searched.GetFilter() != nil {
		t.Errorf("expected nil filter, got %v", p.searched.GetFilter())
	}
}

func TestEnsureIndex(t *testing.T) {
	c := &fakeCollections{}
	r := newTestRepo(&fakePoints{}, c)
	if err := r.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params := c.created.GetVectorsConfig().GetParams()
	if params.GetSize() != 4 || params.GetDistance() != pb.Distance_Cosine {
		t.Errorf("params = %v", params)
	}

	existing := &fakeCollections{exists: true}
	if err := newTestRepo(&fakePoints{}, existing).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if existing.created != nil {
		t.Error("existing collection must not be recreated")
	}
}

func TestCheck(t *testing.T) {
	r := newTestRepo(&fakePoints{}, &fakeCollections{exists: true})
	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r = newTestRepo(&fakePoints{}, &fakeCollections{})
	if err := r.Check(context.Background()); err == nil {
		t.Fatal("expected error for missing collection")
	}

	r = newTestRepo(&fakePoints{}, &fakeCollections{exists: true})
	r.health = &fakeHealth{err: errors.New("down")}
	if err := r.Check(context.Background()); err == nil {
		t.Fatal("expected error for failed health check")
	}
}

func TestValueRoundTrip(t *testing.T) {
	for _, v := range []any{"x", int64(3), 1.5, true} {
		if got := fromValue(toValue(v)); got != v {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
	if got := fromValue(toValue([]string{"a", "b"})).([]string); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("list round trip = %v", got)
	}
	if toValue(struct{}{}) != nil {
		t.Error("unsupported type should be dropped")
	}
}
