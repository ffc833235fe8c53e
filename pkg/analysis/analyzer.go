package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Analyzer extracts ordered paragraphs from a raw document.
type Analyzer interface {
	Analyze(ctx context.Context, name string, data []byte) ([]string, error)
}

// HTTPAnalyzer calls a layout-analysis service that accepts a document
// and returns its paragraphs in reading order.
type HTTPAnalyzer struct {
	BaseURL string
	Client  *http.Client
}

var _ Analyzer = &HTTPAnalyzer{}

func NewHTTPAnalyzer(baseURL string) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type analyzeResponse struct {
	Paragraphs []struct {
		Content string `json:"content"`
	} `json:"paragraphs"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, name string, data []byte) ([]string, error) {
	url := fmt.Sprintf("%s/analyze?name=%s", a.BaseURL, name)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var analyzeResp analyzeResponse
	if err := json.Unmarshal(bodyBytes, &analyzeResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if analyzeResp.Error != nil {
		return nil, fmt.Errorf("analyzer returned error: %s", analyzeResp.Error.Message)
	}

	paragraphs := make([]string, 0, len(analyzeResp.Paragraphs))
	for _, p := range analyzeResp.Paragraphs {
		paragraphs = append(paragraphs, p.Content)
	}

	return paragraphs, nil
}
