package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/swarm"
)

// RemoteClient implements Client over the HTTP API of a running
// `swarmstat serve`.
type RemoteClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewRemoteClient creates a client for the server listening on addr
// (host:port or a full http URL).
func NewRemoteClient(addr string) *RemoteClient {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &RemoteClient{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(base, "/"),
	}
}

// BaseURL returns the server URL used for requests.
func (c *RemoteClient) BaseURL() string {
	return c.baseURL
}

// Projects lists the projects known to the server.
func (c *RemoteClient) Projects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := c.getJSON(ctx, "/api/projects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sessions lists a project's sessions.
func (c *RemoteClient) Sessions(ctx context.Context, projectID string) ([]models.Session, error) {
	var out []models.Session
	if err := c.getJSON(ctx, "/api/sessions/"+url.PathEscape(projectID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Analyze fetches the tree, findings and summary in one request.
func (c *RemoteClient) Analyze(ctx context.Context, projectID, sessionID string) (*Analysis, error) {
	var out Analysis
	path := "/api/analysis/" + url.PathEscape(projectID) + "/" + url.PathEscape(sessionID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	if out.Findings == nil {
		out.Findings = []models.Finding{}
	}
	return &out, nil
}

// Report fetches the markdown report.
func (c *RemoteClient) Report(ctx context.Context, projectID, sessionID string) (string, error) {
	q := url.Values{"project": {projectID}, "session": {sessionID}}
	body, err := c.get(ctx, "/ai?"+q.Encode())
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Swarm fetches the planning artifacts under dir, as seen by the server.
func (c *RemoteClient) Swarm(ctx context.Context, dir string) (*swarm.Artifacts, error) {
	var out *swarm.Artifacts
	q := url.Values{"dir": {dir}}
	if err := c.getJSON(ctx, "/api/swarm?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, swerrors.ArtifactsNotFound(dir)
	}
	return out, nil
}

// IsRunning returns true if the server is available and responding.
func (c *RemoteClient) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.get(ctx, "/health")
	return err == nil
}

// Close cleans up any resources used by the client.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *RemoteClient) getJSON(ctx context.Context, path string, target interface{}) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *RemoteClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, swerrors.StoreUnavailable(c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}

// decodeError turns an error response back into a SwarmError when the
// server sent one.
func decodeError(status int, body []byte) error {
	var se swerrors.SwarmError
	if err := json.Unmarshal(body, &se); err == nil && se.Code != "" {
		return &se
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return swerrors.New(swerrors.ErrCodeInternal, fmt.Sprintf("server returned status %d: %s", status, msg))
}

var _ Client = (*RemoteClient)(nil)
