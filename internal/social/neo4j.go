package social

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jGraph is a GraphStore backed by Neo4j, keeping a durable mirror
// of the city's social graph for offline analysis.
type Neo4jGraph struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4jGraph connects to Neo4j and verifies connectivity.
func NewNeo4jGraph(ctx context.Context, uri, user, password string, logger *zap.Logger) (*Neo4jGraph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jGraph{driver: driver, logger: logger}, nil
}

// RecordFriendship implements GraphStore. Friendship is stored as a
// single undirected-by-convention pair of FRIENDS_WITH edges.
func (g *Neo4jGraph) RecordFriendship(ctx context.Context, aID, bID string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (a:Agent {id: $a})
		 MERGE (b:Agent {id: $b})
		 MERGE (a)-[r1:FRIENDS_WITH]->(b)
		 MERGE (b)-[r2:FRIENDS_WITH]->(a)
		 ON CREATE SET r1.since = datetime(), r2.since = datetime()`,
		map[string]interface{}{"a": aID, "b": bID})
	if err != nil {
		return fmt.Errorf("record friendship: %w", err)
	}
	return nil
}

// RecordInteraction implements GraphStore. Each interaction bumps an
// INTERACTED edge's count and running sentiment.
func (g *Neo4jGraph) RecordInteraction(ctx context.Context, fromID, toID string, sentiment float64, summary string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (a:Agent {id: $from})
		 MERGE (b:Agent {id: $to})
		 MERGE (a)-[r:INTERACTED]->(b)
		 ON CREATE SET r.count = 1, r.sentiment = $sentiment, r.last_summary = $summary, r.updated_at = datetime()
		 ON MATCH SET r.sentiment = (r.sentiment * r.count + $sentiment) / (r.count + 1),
		     r.count = r.count + 1,
		     r.last_summary = $summary,
		     r.updated_at = datetime()`,
		map[string]interface{}{
			"from":      fromID,
			"to":        toID,
			"sentiment": sentiment,
			"summary":   summary,
		})
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// Friends returns the mirrored friend ids for an agent.
func (g *Neo4jGraph) Friends(ctx context.Context, agentID string) ([]string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Agent {id: $id})-[:FRIENDS_WITH]->(b:Agent) RETURN b.id`,
		map[string]interface{}{"id": agentID})
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	var friends []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("b.id"); ok {
			if s, ok := v.(string); ok {
				friends = append(friends, s)
			}
		}
	}
	return friends, nil
}

// Close implements GraphStore.
func (g *Neo4jGraph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
