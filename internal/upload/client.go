package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"
)

// Client sends routine files to the PlanLift server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	trainerID  int
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the PlanLift server.
func NewClient(serverURL, apiKey string, trainerID int) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		trainerID: trainerID,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ImportResult is the server's answer to an upload.
type ImportResult struct {
	Job struct {
		ID    string `json:"id"`
		State string `json:"state"`
	} `json:"job"`
	Deduplicated bool `json:"deduplicated"`
}

// SendFile POSTs one routine file to the imports endpoint.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) SendFile(name string, content []byte, clientID int) (*ImportResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("client_id", strconv.Itoa(clientID)); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, c.serverURL+"/api/v1/imports", bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("X-Trainer-ID", strconv.Itoa(c.trainerID))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK, http.StatusAccepted:
			var result ImportResult
			if err := json.Unmarshal(respBody, &result); err != nil {
				return nil, fmt.Errorf("decoding import response: %w", err)
			}
			return &result, nil
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
			// Not retryable
			return nil, fmt.Errorf("import rejected (status %d): %s", resp.StatusCode, respBody)
		}
		lastErr = fmt.Errorf("import failed (status %d): %s", resp.StatusCode, respBody)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
