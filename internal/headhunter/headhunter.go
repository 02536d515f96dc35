package headhunter

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	apiURL    = "https://api.hh.ru"
	siteURL   = "https://hh.ru"
	userAgent = "spigell/hh-resume-bot (spigelly@gmail.com)"

	authorizePath = "/oauth/authorize"
	tokenPath     = "/oauth/token"

	defaultTimeout = 30 * time.Second
)

// Options configures the hh.ru client. Zero values fall back to production endpoints.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	APIURL     string
	SiteURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// Client talks to the hh.ru REST API on behalf of a single hh.ru account.
// The credential it holds is shared by every chat user of the bot: the bot is
// single-tenant on the platform side.
type Client struct {
	oauth  *oauth2.Config
	tokens *TokenStore
	logger *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	SiteURL    string
}

func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	site := strings.TrimRight(opts.SiteURL, "/")
	if site == "" {
		site = siteURL
	}

	api := strings.TrimRight(opts.APIURL, "/")
	if api == "" {
		api = apiURL
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = userAgent
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   site + authorizePath,
				TokenURL:  site + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		tokens:     &TokenStore{},
		logger:     logger,
		HTTPClient: httpClient,
		UserAgent:  ua,
		APIURL:     api,
		SiteURL:    site,
	}
}

// Tokens exposes the credential store of the client.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// IsAuthenticated reports whether the client holds a full token pair.
func (c *Client) IsAuthenticated() bool {
	return c.tokens.Authenticated()
}
