package vectorstore

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config holds connection settings for a Qdrant instance.
type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// districtCollection is the single collection holding district
// description vectors.
const districtCollection = "districts"

// Client wraps gRPC connections to Qdrant for district similarity
// lookups.
type Client struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
}

// Match is a single nearest-neighbor hit.
type Match struct {
	DistrictID string
	Score      float32
}

// NewClient dials the Qdrant gRPC endpoint.
func NewClient(cfg Config) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect %s: %w", addr, err)
	}
	return &Client{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
	}, nil
}

// EnsureCollection creates the district collection if it does not
// already exist.
func (c *Client) EnsureCollection(ctx context.Context, dimension uint64) error {
	_, err := c.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: districtCollection})
	if err == nil {
		return nil
	}
	_, err = c.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: districtCollection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     dimension,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", districtCollection, err)
	}
	return nil
}

// UpsertDistrict stores a district's description vector.
func (c *Client) UpsertDistrict(ctx context.Context, districtID, name string, vector []float32) error {
	_, err := c.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: districtCollection,
		Points: []*pb.PointStruct{
			{
				Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: districtID}},
				Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}}},
				Payload: map[string]*pb.Value{
					"district_id": {Kind: &pb.Value_StringValue{StringValue: districtID}},
					"name":        {Kind: &pb.Value_StringValue{StringValue: name}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert district %s: %w", districtID, err)
	}
	return nil
}

// SearchDistricts returns up to topK districts nearest to the query
// vector. Zero matches is a valid result, not an error.
func (c *Client) SearchDistricts(ctx context.Context, vector []float32, topK uint64) ([]Match, error) {
	resp, err := c.points.Search(ctx, &pb.SearchPoints{
		CollectionName: districtCollection,
		Vector:         vector,
		Limit:          topK,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", districtCollection, err)
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		id := r.Id.GetUuid()
		if v, ok := r.Payload["district_id"]; ok {
			if sv, ok := v.Kind.(*pb.Value_StringValue); ok {
				id = sv.StringValue
			}
		}
		matches = append(matches, Match{DistrictID: id, Score: r.Score})
	}
	return matches, nil
}

// Close tears down the underlying gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
