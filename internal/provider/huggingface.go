package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "stabilityai/stable-diffusion-2-1"

	// Fixed generation parameters, matching what the frontend expects.
	inferenceSteps = 50
	guidanceScale  = 7.5

	maxImageBytes = 32 << 20
)

// Error is the single structured failure the client surfaces. Provider
// response bodies are kept out of it so they never leak to API clients.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("provider: %s", e.Message)
}

type textToImageRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters imageParameters `json:"parameters"`
}

type imageParameters struct {
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

// Client calls the Hugging Face inference API. One-shot request, bounded
// timeout, no retries: a slow or failing provider fails the request.
type Client struct {
	baseURL    string
	model      string
	apiToken   string
	httpClient *http.Client
}

func NewClient(baseURL, model, apiToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:  baseURL,
		model:    model,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TextToImage submits the prompt and returns the raw image bytes.
func (c *Client) TextToImage(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(textToImageRequest{
		Inputs: prompt,
		Parameters: imageParameters{
			NumInferenceSteps: inferenceSteps,
			GuidanceScale:     guidanceScale,
		},
	})
	if err != nil {
		return nil, &Error{Message: "encode request"}
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Message: "build request"}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: "request failed"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{StatusCode: resp.StatusCode, Message: "inference failed"}
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, &Error{Message: "read response"}
	}
	if len(image) == 0 {
		return nil, &Error{Message: "empty response"}
	}
	if len(image) > maxImageBytes {
		return nil, &Error{Message: "response too large"}
	}
	return image, nil
}
