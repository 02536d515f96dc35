package headhunter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	ErrNoRefreshToken = errors.New("refresh token is missing, authorization is required")
	ErrNoCode         = errors.New("authorization code is empty")
)

// AuthURL returns the hh.ru authorization page URL. It does not touch the network.
func (c *Client) AuthURL() string {
	return c.oauth.AuthCodeURL("")
}

// RedirectURI returns the redirect URI sent with both the authorization and the token requests.
func (c *Client) RedirectURI() string {
	return c.oauth.RedirectURL
}

// SetRedirectURI replaces the redirect URI. hh.ru rejects a code exchanged with a
// redirect URI other than the one the code was issued for.
func (c *Client) SetRedirectURI(uri string) {
	c.oauth.RedirectURL = uri
}

// ExchangeCode trades an authorization code for a token pair and stores it.
func (c *Client) ExchangeCode(ctx context.Context, code string) error {
	if code == "" {
		return ErrNoCode
	}

	c.logger.Info("exchanging authorization code", zap.String("redirect_uri", c.oauth.RedirectURL))

	token, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		err = tokenError(err)
		c.logger.Error("exchanging authorization code failed", zap.Error(err))
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	if err := c.tokens.Set(token.AccessToken, token.RefreshToken); err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	c.logger.Info("got access tokens")
	return nil
}

// RefreshAccessToken replaces the token pair using the refresh grant. Any failure
// clears the stored pair so the user has to authorize again.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	_, refresh := c.tokens.Get()
	if refresh == "" {
		c.logger.Error("refresh requested without refresh token")
		return ErrNoRefreshToken
	}

	source := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refresh})

	token, err := source.Token()
	if err != nil {
		c.tokens.Clear()
		err = tokenError(err)
		c.logger.Error("refreshing tokens failed, credential dropped", zap.Error(err))
		return fmt.Errorf("refresh access token: %w", err)
	}

	if err := c.tokens.Set(token.AccessToken, token.RefreshToken); err != nil {
		c.tokens.Clear()
		return fmt.Errorf("refresh access token: %w", err)
	}

	c.logger.Info("tokens refreshed")
	return nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}

// tokenError converts oauth2 retrieve errors into HTTPError so callers see a single error type.
func tokenError(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) && retrieve.Response != nil {
		return &HTTPError{
			StatusCode: retrieve.Response.StatusCode,
			Status:     retrieve.Response.Status,
			Body:       string(retrieve.Body),
		}
	}
	return err
}
