package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs a request carrying the API key header but no bearer
// token.
func (c *SDKClient) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.APIKey != "" {
		req.Header.Set(APIKeyHeader, APIKeyHeaderValue(c.APIKey, c.APIKeySecret))
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// doAuthRequest performs a bearer-authenticated request. When the access
// token has expired it refreshes once and replays the request.
func (s *Session) doAuthRequest(
	ctx context.Context,
	method, path string,
	payload any,
) (*http.Response, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}

	send := func(token string) (*http.Response, error) {
		headers := map[string]string{"Authorization": "Bearer " + token}
		if body != nil {
			headers["Content-Type"] = "application/json"
		}
		return s.client.doRequest(ctx, method, path, bytes.NewReader(body), headers)
	}

	resp, err := send(s.AccessToken())
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// Peek at the error code; only an expired access token is retried.
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if apiErr := parseErrorResponse(resp, raw); !errors.Is(apiErr, ErrTokenExpired) {
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		return resp, nil
	}

	token, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}
	return send(token)
}

// decodeJSON decodes a JSON response into target, or returns an *Error
// when the status is not expectedStatus.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		if apiErr := parseErrorResponse(resp, bodyBytes); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkStatusNoContent returns a typed error if the response status is not 204 No Content.
func checkStatusNoContent(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, bodyBytes)
	}
	return nil
}
