package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

const maxBodyPreview = 200

// doRequest performs a GET against the given path and returns the raw body.
// Failures are always returned as *Error.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) (body []byte, contentType string, err error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, "", &Error{Kind: KindUnreachable, URL: fullURL, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &Error{Kind: KindUnreachable, URL: fullURL, Message: "network error", Err: err}
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &Error{Kind: KindUnreachable, URL: fullURL, Message: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", &Error{
			Kind:    classifyStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			URL:     fullURL,
			Message: preview(body),
		}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusNotFound, status == http.StatusBadRequest, status == http.StatusGone:
		return KindNotFound
	default:
		return KindUnreachable
	}
}

// get performs a GET request and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	body, _, err := c.doRequest(ctx, path, query)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &Error{
			Kind:    KindInvalidResponse,
			URL:     c.baseURL + path,
			Message: "unmarshal response: " + preview(body),
			Err:     err,
		}
	}

	return nil
}

func preview(body []byte) string {
	if len(body) > maxBodyPreview {
		body = body[:maxBodyPreview]
	}
	return string(body)
}
