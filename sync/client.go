package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"notesync/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// RemoteClient is the network interface the coordinator syncs against.
// Notes on the hub are scoped by tenant and user.
type RemoteClient interface {
	Health(ctx context.Context) error
	ListNotes(ctx context.Context, tenant, user string) ([]store.Note, error)
	CreateNote(ctx context.Context, n store.Note) (store.Note, error)
	UpdateNote(ctx context.Context, id string, n store.Note) (store.Note, error)
	DeleteNote(ctx context.Context, id string) error
	SearchNotes(ctx context.Context, tenant, user, query string) ([]store.Note, error)
}

// healthTimeout caps the connectivity probe. Discovery/health traffic
// uses a short fixed timeout and is never retried.
const healthTimeout = 3 * time.Second

// HTTPClient talks to the hub's JSON API with bearer-token auth.
// Tokens are cached in memory; an expired or rejected token triggers
// one transparent re-login so callers never see 401s.
type HTTPClient struct {
	cfg        *Config
	httpClient *http.Client

	tokenMu   sync.Mutex
	authToken string
}

// NewHTTPClient builds a client from a validated config.
func NewHTTPClient(cfg *Config) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, serr.Wrap(err, "invalid sync config")
	}

	return &HTTPClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// apiEnvelope is the hub's uniform response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Health pings the hub's health endpoint to verify connectivity.
func (hc *HTTPClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.cfg.HubURL+"/api/v1/health", nil)
	if err != nil {
		return serr.Wrap(err, "failed to create health check request")
	}

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return serr.Wrap(err, "health check request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serr.New(fmt.Sprintf("health check returned status %d", resp.StatusCode))
	}
	return nil
}

// ListNotes fetches the full remote note set for the tenant and user.
func (hc *HTTPClient) ListNotes(ctx context.Context, tenant, user string) ([]store.Note, error) {
	endpoint := fmt.Sprintf("%s/api/v1/notes?tenant=%s&user=%s",
		hc.cfg.HubURL, url.QueryEscape(tenant), url.QueryEscape(user))

	var notes []store.Note
	if err := hc.doJSON(ctx, http.MethodGet, endpoint, nil, &notes); err != nil {
		return nil, serr.Wrap(err, "failed to list remote notes")
	}
	return notes, nil
}

// CreateNote pushes a new note and returns the server's canonical copy.
func (hc *HTTPClient) CreateNote(ctx context.Context, n store.Note) (store.Note, error) {
	endpoint := hc.scopedEndpoint("/api/v1/notes")

	body, err := json.Marshal(n)
	if err != nil {
		return store.Note{}, serr.Wrap(err, "failed to marshal note")
	}

	var created store.Note
	if err := hc.doJSON(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return store.Note{}, serr.Wrap(err, "failed to create remote note")
	}
	return created, nil
}

// UpdateNote pushes an edited note and returns the server's canonical
// copy (which may be the server's own version if it was newer).
func (hc *HTTPClient) UpdateNote(ctx context.Context, id string, n store.Note) (store.Note, error) {
	endpoint := hc.scopedEndpoint("/api/v1/notes/" + url.PathEscape(id))

	body, err := json.Marshal(n)
	if err != nil {
		return store.Note{}, serr.Wrap(err, "failed to marshal note")
	}

	var updated store.Note
	if err := hc.doJSON(ctx, http.MethodPut, endpoint, body, &updated); err != nil {
		return store.Note{}, serr.Wrap(err, "failed to update remote note")
	}
	return updated, nil
}

// DeleteNote removes a note on the hub. Deleting an id the hub has
// never seen succeeds — double-delete is a normal race.
func (hc *HTTPClient) DeleteNote(ctx context.Context, id string) error {
	endpoint := hc.scopedEndpoint("/api/v1/notes/" + url.PathEscape(id))

	if err := hc.doJSON(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return serr.Wrap(err, "failed to delete remote note")
	}
	return nil
}

// SearchNotes runs a server-side search scoped to the tenant and user.
func (hc *HTTPClient) SearchNotes(ctx context.Context, tenant, user, query string) ([]store.Note, error) {
	endpoint := fmt.Sprintf("%s/api/v1/notes/search?tenant=%s&user=%s&q=%s",
		hc.cfg.HubURL, url.QueryEscape(tenant), url.QueryEscape(user), url.QueryEscape(query))

	var notes []store.Note
	if err := hc.doJSON(ctx, http.MethodGet, endpoint, nil, &notes); err != nil {
		return nil, serr.Wrap(err, "remote search failed")
	}
	return notes, nil
}

func (hc *HTTPClient) scopedEndpoint(path string) string {
	return fmt.Sprintf("%s%s?tenant=%s&user=%s",
		hc.cfg.HubURL, path, url.QueryEscape(hc.cfg.Tenant), url.QueryEscape(hc.cfg.Username))
}

// doJSON sends an authenticated request and decodes the envelope's data
// field into out (out may be nil when no payload is expected). On 401
// it re-authenticates once and retries; the request body is rebuilt
// from bytes each attempt so the retry is safe.
func (hc *HTTPClient) doJSON(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	if err := hc.ensureToken(ctx); err != nil {
		return err
	}

	resp, err := hc.send(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := hc.login(ctx); err != nil {
			return serr.Wrap(err, "re-authentication failed after 401")
		}
		resp, err = hc.send(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return serr.Wrap(err, "failed to decode response")
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return serr.New(msg)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return serr.Wrap(err, "failed to decode response data")
		}
	}
	return nil
}

func (hc *HTTPClient) send(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, serr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+hc.token())

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return nil, serr.Wrap(err, "request failed")
	}
	return resp, nil
}

func (hc *HTTPClient) token() string {
	hc.tokenMu.Lock()
	defer hc.tokenMu.Unlock()
	return hc.authToken
}

// ensureToken logs in when there is no cached token or the cached one
// is about to expire. Expiry is read from the token's own claims
// without signature verification — the hub verifies; the client only
// needs to know whether a round trip is worth attempting.
func (hc *HTTPClient) ensureToken(ctx context.Context) error {
	hc.tokenMu.Lock()
	token := hc.authToken
	hc.tokenMu.Unlock()

	if token != "" && !tokenExpiringSoon(token) {
		return nil
	}
	return hc.login(ctx)
}

// tokenExpiringSoon reports whether the token expires within 30s (or
// cannot be parsed at all, in which case a fresh login is cheaper than
// a guaranteed 401).
func tokenExpiringSoon(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Until(exp.Time) < 30*time.Second
}

// login posts credentials to the hub's auth endpoint and caches the
// returned JWT.
func (hc *HTTPClient) login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"tenant":   hc.cfg.Tenant,
		"username": hc.cfg.Username,
		"password": hc.cfg.Password,
	})
	if err != nil {
		return serr.Wrap(err, "failed to marshal login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.cfg.HubURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return serr.Wrap(err, "failed to create login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return serr.Wrap(err, "login request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serr.New(fmt.Sprintf("login failed with status %d", resp.StatusCode))
	}

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return serr.Wrap(err, "failed to decode login response")
	}
	if !env.Success || env.Data.Token == "" {
		return serr.New("login response missing token")
	}

	hc.tokenMu.Lock()
	hc.authToken = env.Data.Token
	hc.tokenMu.Unlock()

	logger.Debug("Authenticated with hub", "hub_url", hc.cfg.HubURL, "tenant", hc.cfg.Tenant)
	return nil
}
