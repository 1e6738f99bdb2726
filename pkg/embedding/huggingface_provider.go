package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HuggingFaceProvider calls the HuggingFace router's OpenAI-compatible
// embeddings endpoint. The default model is a 384-dimensional
// sentence-transformer suited to cosine retrieval.
type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewHuggingFaceProvider(apiKey, model string) *HuggingFaceProvider {
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		baseURL: "https://router.huggingface.co/v1/embeddings",
		model:   model,
		client:  &http.Client{},
	}
}

func (p *HuggingFaceProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model: p.model,
		Input: []string{text},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var hfResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &hfResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if hfResp.Error != nil {
		return nil, fmt.Errorf("huggingface api returned error: %s", hfResp.Error.Message)
	}

	if len(hfResp.Data) == 0 {
		return nil, fmt.Errorf("empty embeddings from huggingface api")
	}

	return NormalizeVector(hfResp.Data[0].Embedding), nil
}
