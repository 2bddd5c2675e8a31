package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"similarity-lab/ranker"
)

// pointNamespace scopes the UUIDs derived from vector ids
var pointNamespace = uuid.MustParse("6f1c2a8e-3d4b-5c6d-8e9f-a0b1c2d3e4f5")

const payloadID = "id"

/*
QdrantIndex is a ranker.NeighborIndex backed by a Qdrant collection over gRPC.

Qdrant only accepts UUID or integer point ids, so every vector id is mapped
to a name-based UUID and the original id travels in the payload.
*/
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

/*
NewQdrantIndex connects to Qdrant's gRPC port
*/
func NewQdrantIndex(host string, port int, collection string) (*QdrantIndex, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &QdrantIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

/*
EnsureCollection creates the cosine collection when it does not exist yet
*/
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimensions int) error {
	exists, err := q.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: q.collection})
	if err != nil {
		return fmt.Errorf("qdrant collection exists: %w", err)
	}
	if exists.GetResult().GetExists() {
		return nil
	}

	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{
			Params: &pb.VectorParams{Size: uint64(dimensions), Distance: pb.Distance_Cosine},
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection %s: %w", q.collection, err)
	}
	return nil
}

/*
Upsert writes vectors and their names to the collection
*/
func (q *QdrantIndex) Upsert(ctx context.Context, vectors []Vector) error {
	points := make([]*pb.PointStruct, len(vectors))
	for i, v := range vectors {
		points[i] = toPoint(v)
	}

	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

/*
Search returns the k nearest points as cosine distances (1 - similarity)
*/
func (q *QdrantIndex) Search(ctx context.Context, query []float32, k int) ([]ranker.Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidParameter
	}
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         query,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	return toNeighbors(resp.GetResult()), nil
}

// ScoreFunc converts the distances returned by Search back into similarities.
func (q *QdrantIndex) ScoreFunc() ranker.DistanceScore {
	return ranker.OneMinusDistance
}

func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

// PointID maps a vector id to the UUID used as Qdrant point id.
func PointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

func toPoint(v Vector) *pb.PointStruct {
	payload := map[string]*pb.Value{
		payloadID: {Kind: &pb.Value_StringValue{StringValue: v.ID}},
	}
	if v.Meta.Name != "" {
		payload["name"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v.Meta.Name}}
	}
	if v.Meta.Category != "" {
		payload["category"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v.Meta.Category}}
	}
	return &pb.PointStruct{
		Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(v.ID)}},
		Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: v.Data}}},
		Payload: payload,
	}
}

func toNeighbors(points []*pb.ScoredPoint) []ranker.Neighbor {
	neighbors := make([]ranker.Neighbor, 0, len(points))
	for _, pt := range points {
		id := pt.GetPayload()[payloadID].GetStringValue()
		if id == "" {
			id = pt.GetId().GetUuid()
		}
		neighbors = append(neighbors, ranker.Neighbor{ID: id, Distance: 1 - pt.GetScore()})
	}
	return neighbors
}

var _ ranker.NeighborIndex = (*QdrantIndex)(nil)
var _ ranker.NeighborIndex = (*HNSWGraph)(nil)
