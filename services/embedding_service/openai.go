package embedding_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pgvector/pgvector-go"

	"github.com/serisow/metaminds/document"
)

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Object string `json:"object"`
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint. The model's
// dimensionality is fixed at construction and verified on every response.
type OpenAIEmbedder struct {
	apiKey    string
	model     string
	dimension int
	client    *http.Client
}

func NewOpenAIEmbedder(apiKey, model string, dimension int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		client:    &http.Client{},
	}
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	if err := checkInput(text); err != nil {
		return pgvector.Vector{}, err
	}
	if e.apiKey == "" {
		return pgvector.Vector{}, fmt.Errorf("%w: OPENAI_API_KEY not set", document.ErrEmbeddingFailed)
	}

	requestBody := embeddingRequest{
		Input: text,
		Model: e.model,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("%w: failed to marshal embedding request: %v", document.ErrEmbeddingFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("%w: failed to create HTTP request: %v", document.ErrEmbeddingFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("%w: failed to send HTTP request: %v", document.ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return pgvector.Vector{}, fmt.Errorf("%w: embedding service returned status %d: %s",
			document.ErrEmbeddingFailed, resp.StatusCode, string(body))
	}

	var embeddingResp embeddingResponse
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(&embeddingResp); err != nil {
		return pgvector.Vector{}, fmt.Errorf("%w: failed to decode embedding response: %v", document.ErrEmbeddingFailed, err)
	}

	if len(embeddingResp.Data) == 0 {
		return pgvector.Vector{}, fmt.Errorf("%w: no embedding data received", document.ErrEmbeddingFailed)
	}

	embedding := embeddingResp.Data[0].Embedding
	if len(embedding) != e.dimension {
		return pgvector.Vector{}, fmt.Errorf("%w: expected %d dimensions, got %d",
			document.ErrEmbeddingFailed, e.dimension, len(embedding))
	}

	return pgvector.NewVector(embedding), nil
}
