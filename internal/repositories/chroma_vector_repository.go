package repositories

import (
	"context"
	"fmt"

	"course-assistant/internal/db"
)

// ChromaVectorRepository implements VectorRepository using ChromaDB
type ChromaVectorRepository struct {
	client *db.ChromaClient
}

// NewChromaVectorRepository creates a new ChromaDB-backed vector repository
func NewChromaVectorRepository(client *db.ChromaClient) VectorRepository {
	return &ChromaVectorRepository{
		client: client,
	}
}

// EnsureCollection creates the collection if it does not exist yet
func (r *ChromaVectorRepository) EnsureCollection(ctx context.Context, name string) error {
	if _, err := r.client.GetOrCreateCollection(ctx, name); err != nil {
		return NewVectorRepositoryError("ensure_collection", err, "failed to ensure collection: "+name)
	}
	return nil
}

// DeleteCollection deletes a collection
func (r *ChromaVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	if err := r.client.DeleteCollection(ctx, name); err != nil {
		return NewVectorRepositoryError("delete_collection", err, "failed to delete collection: "+name)
	}
	return nil
}

// CountRecords returns the number of records in a collection
func (r *ChromaVectorRepository) CountRecords(ctx context.Context, collectionName string) (int, error) {
	count, err := r.client.CountCollection(ctx, collectionName)
	if err != nil {
		return 0, NewVectorRepositoryError("count_records", err, "")
	}
	return count, nil
}

// UpsertRecords inserts or replaces records by id
func (r *ChromaVectorRepository) UpsertRecords(ctx context.Context, collectionName string, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	ids, documents, embeddings, metadatas := splitRecords(records)
	if err := r.client.UpsertRecords(ctx, collectionName, ids, documents, embeddings, metadatas); err != nil {
		return NewVectorRepositoryError("upsert_records", err, fmt.Sprintf("failed to upsert %d records", len(records)))
	}
	return nil
}

// AddRecords appends records to a collection
func (r *ChromaVectorRepository) AddRecords(ctx context.Context, collectionName string, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	ids, documents, embeddings, metadatas := splitRecords(records)
	if err := r.client.AddRecords(ctx, collectionName, ids, documents, embeddings, metadatas); err != nil {
		return NewVectorRepositoryError("add_records", err, fmt.Sprintf("failed to add %d records", len(records)))
	}
	return nil
}

// QueryNearest runs a nearest-neighbor search with an optional equality filter
func (r *ChromaVectorRepository) QueryNearest(ctx context.Context, collectionName string, queryEmbedding []float32, topK int, filter map[string]interface{}) ([]*NearestResult, error) {
	results, err := r.client.Query(ctx, collectionName, [][]float32{queryEmbedding}, topK, filter)
	if err != nil {
		return nil, NewVectorRepositoryError("query_nearest", err, "query failed")
	}

	// ChromaDB returns one row of parallel arrays per query embedding.
	nearest := make([]*NearestResult, 0)
	if len(results.IDs) > 0 {
		for i := range results.IDs[0] {
			result := &NearestResult{
				ID:       results.IDs[0][i],
				Metadata: map[string]interface{}{},
			}
			if len(results.Documents) > 0 && i < len(results.Documents[0]) {
				result.Document = results.Documents[0][i]
			}
			if len(results.Distances) > 0 && i < len(results.Distances[0]) {
				result.Distance = results.Distances[0][i]
			}
			if len(results.Metadatas) > 0 && i < len(results.Metadatas[0]) && results.Metadatas[0][i] != nil {
				result.Metadata = results.Metadatas[0][i]
			}
			nearest = append(nearest, result)
		}
	}

	return nearest, nil
}

// GetRecords fetches records without a similarity query
func (r *ChromaVectorRepository) GetRecords(ctx context.Context, collectionName string, filter map[string]interface{}, limit int) ([]*Record, error) {
	result, err := r.client.GetRecords(ctx, collectionName, filter, limit)
	if err != nil {
		return nil, NewVectorRepositoryError("get_records", err, "failed to get records")
	}

	records := make([]*Record, len(result.IDs))
	for i, id := range result.IDs {
		record := &Record{
			ID:       id,
			Metadata: map[string]interface{}{},
		}
		if i < len(result.Documents) {
			record.Document = result.Documents[i]
		}
		if i < len(result.Metadatas) && result.Metadatas[i] != nil {
			record.Metadata = result.Metadatas[i]
		}
		records[i] = record
	}

	return records, nil
}

// Ping checks if ChromaDB is alive
func (r *ChromaVectorRepository) Ping(ctx context.Context) error {
	if err := r.client.Heartbeat(ctx); err != nil {
		return NewVectorRepositoryError("ping", err, "ChromaDB heartbeat failed")
	}
	return nil
}

// Close closes the ChromaDB client
func (r *ChromaVectorRepository) Close() error {
	r.client.Close()
	return nil
}

func splitRecords(records []*Record) (ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) {
	ids = make([]string, len(records))
	documents = make([]string, len(records))
	embeddings = make([][]float32, len(records))
	metadatas = make([]map[string]interface{}, len(records))
	for i, record := range records {
		ids[i] = record.ID
		documents[i] = record.Document
		embeddings[i] = record.Embedding
		metadatas[i] = record.Metadata
	}
	return ids, documents, embeddings, metadatas
}
