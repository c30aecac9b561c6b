package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChromaClient wraps HTTP calls to the ChromaDB v2 API. The official Go
// client lags the v2 surface, so requests are issued directly.
type ChromaClient struct {
	baseURL    string
	serverURL  string
	httpClient *http.Client
}

// ChromaConfig holds configuration for the ChromaDB connection
type ChromaConfig struct {
	Host     string
	Port     int
	Tenant   string // default: "default_tenant"
	Database string // default: "default_database"
	Timeout  time.Duration
}

// ChromaCollection represents a ChromaDB collection
type ChromaCollection struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

// GetResult holds records fetched without a similarity query.
type GetResult struct {
	IDs       []string                 `json:"ids"`
	Documents []string                 `json:"documents"`
	Metadatas []map[string]interface{} `json:"metadatas"`
}

// QueryResult holds nearest-neighbor results. The outer dimension is one
// entry per query embedding.
type QueryResult struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float32                `json:"distances"`
}

// NewChromaClient creates a client for the ChromaDB v2 API.
func NewChromaClient(config ChromaConfig) *ChromaClient {
	if config.Tenant == "" {
		config.Tenant = "default_tenant"
	}
	if config.Database == "" {
		config.Database = "default_database"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	serverURL := fmt.Sprintf("http://%s:%d", config.Host, config.Port)
	baseURL := fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s",
		serverURL, config.Tenant, config.Database)

	return &ChromaClient{
		baseURL:   baseURL,
		serverURL: serverURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// do issues one API request and decodes the JSON response into out (when out
// is non-nil). Non-2xx statuses become errors carrying the response body.
func (c *ChromaClient) do(ctx context.Context, method, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (status %d): %s", method, url, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Heartbeat checks if ChromaDB is alive
func (c *ChromaClient) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.serverURL+"/api/v2/heartbeat", nil, nil)
}

// GetCollection retrieves a collection by name
func (c *ChromaClient) GetCollection(ctx context.Context, name string) (*ChromaCollection, error) {
	var collection ChromaCollection
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	if err := c.do(ctx, http.MethodGet, url, nil, &collection); err != nil {
		return nil, fmt.Errorf("collection not found: %s: %w", name, err)
	}
	return &collection, nil
}

// GetOrCreateCollection returns the named collection, creating it with cosine
// distance when it does not exist yet.
func (c *ChromaClient) GetOrCreateCollection(ctx context.Context, name string) (*ChromaCollection, error) {
	payload := map[string]interface{}{
		"name":          name,
		"metadata":      map[string]interface{}{"hnsw:space": "cosine"},
		"get_or_create": true,
	}

	var collection ChromaCollection
	url := fmt.Sprintf("%s/collections", c.baseURL)
	if err := c.do(ctx, http.MethodPost, url, payload, &collection); err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", name, err)
	}
	return &collection, nil
}

// DeleteCollection deletes a collection by name
func (c *ChromaClient) DeleteCollection(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	if err := c.do(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

// CountCollection returns the number of records in a collection
func (c *ChromaClient) CountCollection(ctx context.Context, name string) (int, error) {
	collection, err := c.GetCollection(ctx, name)
	if err != nil {
		return 0, err
	}

	var count int
	url := fmt.Sprintf("%s/collections/%s/count", c.baseURL, collection.ID)
	if err := c.do(ctx, http.MethodGet, url, nil, &count); err != nil {
		return 0, fmt.Errorf("count collection %s: %w", name, err)
	}
	return count, nil
}

// UpsertRecords inserts or replaces records by id. Embeddings are computed by
// the caller; ChromaDB stores them alongside documents and metadata.
func (c *ChromaClient) UpsertRecords(ctx context.Context, collectionName string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"embeddings": embeddings,
	}
	if metadatas != nil {
		payload["metadatas"] = metadatas
	}

	url := fmt.Sprintf("%s/collections/%s/upsert", c.baseURL, collection.ID)
	if err := c.do(ctx, http.MethodPost, url, payload, nil); err != nil {
		return fmt.Errorf("upsert %d records into %s: %w", len(ids), collectionName, err)
	}
	return nil
}

// AddRecords appends records to a collection.
func (c *ChromaClient) AddRecords(ctx context.Context, collectionName string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"embeddings": embeddings,
	}
	if metadatas != nil {
		payload["metadatas"] = metadatas
	}

	url := fmt.Sprintf("%s/collections/%s/add", c.baseURL, collection.ID)
	if err := c.do(ctx, http.MethodPost, url, payload, nil); err != nil {
		return fmt.Errorf("add %d records to %s: %w", len(ids), collectionName, err)
	}
	return nil
}

// Query runs a nearest-neighbor search with an optional equality filter.
func (c *ChromaClient) Query(ctx context.Context, collectionName string, queryEmbeddings [][]float32, nResults int, where map[string]interface{}) (*QueryResult, error) {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"query_embeddings": queryEmbeddings,
		"n_results":        nResults,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if where != nil {
		payload["where"] = where
	}

	var result QueryResult
	url := fmt.Sprintf("%s/collections/%s/query", c.baseURL, collection.ID)
	if err := c.do(ctx, http.MethodPost, url, payload, &result); err != nil {
		return nil, fmt.Errorf("query %s: %w", collectionName, err)
	}
	return &result, nil
}

// GetRecords fetches records without a similarity query, optionally filtered.
// A limit of 0 fetches everything.
func (c *ChromaClient) GetRecords(ctx context.Context, collectionName string, where map[string]interface{}, limit int) (*GetResult, error) {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"include": []string{"documents", "metadatas"},
	}
	if len(where) > 0 {
		payload["where"] = where
	}
	if limit > 0 {
		payload["limit"] = limit
	}

	var result GetResult
	url := fmt.Sprintf("%s/collections/%s/get", c.baseURL, collection.ID)
	if err := c.do(ctx, http.MethodPost, url, payload, &result); err != nil {
		return nil, fmt.Errorf("get records from %s: %w", collectionName, err)
	}
	return &result, nil
}

// Close closes idle HTTP connections
func (c *ChromaClient) Close() {
	c.httpClient.CloseIdleConnections()
}
