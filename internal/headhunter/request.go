package headhunter

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spigell/hh-resume-bot/internal/utils"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"

	logBodyLimit = 512
)

type apiResponse struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (r *apiResponse) httpError() *HTTPError {
	return &HTTPError{
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Body:       string(r.Body),
	}
}

// MakeAPIRequest performs an authenticated call to the hh.ru API.
// A 401 answer triggers exactly one token refresh and one retry.
// 204 and empty bodies yield an empty map.
func (c *Client) MakeAPIRequest(ctx context.Context, method, endpoint string, body any, query url.Values) (map[string]any, error) {
	access, _ := c.tokens.Get()
	if access == "" {
		return nil, ErrNotAuthenticated
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, endpoint, payload, query, access)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Info("access token rejected, refreshing", zap.String("endpoint", endpoint))

		if err := c.RefreshAccessToken(ctx); err != nil {
			return nil, err
		}

		access, _ = c.tokens.Get()

		resp, err = c.send(ctx, method, endpoint, payload, query, access)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, resp.httpError())
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("bad status from hh.ru",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", utils.TruncateForLog(string(resp.Body), logBodyLimit)),
		)
		return nil, resp.httpError()
	}

	return decodeObject(resp)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte, query url.Values, token string) (*apiResponse, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+endpoint, reader)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req, token)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	c.logger.Debug("make request", zap.String("method", method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read response of %s %s: %w", method, endpoint, err)
	}

	return &apiResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       data,
	}, nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	return data, nil
}

func decodeObject(resp *apiResponse) (map[string]any, error) {
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(resp.Body)) == 0 {
		return map[string]any{}, nil
	}

	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, ErrUnexpectedBody
	}

	return object, nil
}
