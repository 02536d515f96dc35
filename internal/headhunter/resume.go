package headhunter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var ErrEmptyID = errors.New("id is required")

// GetResume fetches the full resume document.
func (c *Client) GetResume(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("get resume: %w", ErrEmptyID)
	}

	return c.MakeAPIRequest(ctx, http.MethodGet, "/resumes/"+url.PathEscape(id), nil, nil)
}

// UpdateResume replaces the resume document with doc.
func (c *Client) UpdateResume(ctx context.Context, id string, doc map[string]any) error {
	if id == "" {
		return fmt.Errorf("update resume: %w", ErrEmptyID)
	}

	_, err := c.MakeAPIRequest(ctx, http.MethodPut, "/resumes/"+url.PathEscape(id), doc, nil)
	return err
}

// ResumeURL is the public page of the resume.
func (c *Client) ResumeURL(id string) string {
	return fmt.Sprintf("%s/resume/%s", c.SiteURL, id)
}
