package headhunter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetVacancy fetches the full vacancy document.
func (c *Client) GetVacancy(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("get vacancy: %w", ErrEmptyID)
	}

	return c.MakeAPIRequest(ctx, http.MethodGet, "/vacancies/"+url.PathEscape(id), nil, nil)
}
