package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client provides typed access to the Whop platform API for interactive tools.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "https://api.whop.com"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	// Artifact uploads can legitimately outlive the API timeout, so they
	// share the transport but not the client deadline. Cancellation comes
	// from the request context.
	cli.uploadClient = &http.Client{Transport: cli.httpClient.Transport}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// User reflects API user payloads.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// OTPChallenge identifies a pending email login code.
type OTPChallenge struct {
	RequestID string `json:"request_id"`
	ExpiresIn int    `json:"expires_in"`
}

// RequestLoginCode asks the API to email a one-time login code.
func (c *Client) RequestLoginCode(ctx context.Context, email string) (OTPChallenge, error) {
	body := map[string]string{"email": email}
	var challenge OTPChallenge
	if err := c.do(ctx, http.MethodPost, "/v1/auth/otp/request", body, "", &challenge); err != nil {
		return OTPChallenge{}, err
	}
	return challenge, nil
}

// LoginResponse captures the session payload emitted after OTP verification.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// VerifyLoginCode exchanges an emailed one-time code for a session token.
func (c *Client) VerifyLoginCode(ctx context.Context, email, requestID, code string) (LoginResponse, error) {
	body := map[string]string{
		"email":      email,
		"request_id": requestID,
		"code":       code,
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/otp/verify", body, "", &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// CurrentUser returns the identity behind the provided token.
func (c *Client) CurrentUser(ctx context.Context, token string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, token, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// App describes a deployable application on the platform.
type App struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ListApps returns all apps visible to the authenticated user.
func (c *Client) ListApps(ctx context.Context, token string) ([]App, error) {
	var apps []App
	if err := c.do(ctx, http.MethodGet, "/v1/apps", nil, token, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ResolveApp looks up an app by id, name, or slug.
func (c *Client) ResolveApp(ctx context.Context, token, name string) (App, error) {
	path := fmt.Sprintf("/v1/apps/resolve?name=%s", url.QueryEscape(name))
	var app App
	if err := c.do(ctx, http.MethodGet, path, nil, token, &app); err != nil {
		return App{}, err
	}
	return app, nil
}

// BuildMetadata describes the toolchain that produced an artifact. The key
// names mirror what the rollout pipeline expects.
type BuildMetadata struct {
	NextVersion     string `json:"nextVersion,omitempty"`
	OpenNextVersion string `json:"opennextVersion,omitempty"`
	BuildTimeMs     int64  `json:"buildTimeMs"`
	CommitSHA       string `json:"commitSha,omitempty"`
}

// Deployment represents API deployment payloads.
type Deployment struct {
	ID           int64      `json:"id"`
	UUID         string     `json:"uuid"`
	AppID        string     `json:"app_id"`
	Status       string     `json:"status"`
	RolloutStage string     `json:"rollout_stage,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// CreateDeploymentInput captures the payload for deployment creation.
type CreateDeploymentInput struct {
	Metadata       *BuildMetadata `json:"metadata,omitempty"`
	Checksum       string         `json:"checksum,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// CreateDeploymentResponse pairs the created record with its upload target.
type CreateDeploymentResponse struct {
	Deployment Deployment `json:"deployment"`
	UploadURL  string     `json:"upload_url"`
}

// CreateDeployment registers a new deployment for the app and returns the
// artifact upload target. An idempotency key is generated when absent so a
// retried create cannot register two deployments.
func (c *Client) CreateDeployment(ctx context.Context, token, appID string, input CreateDeploymentInput) (CreateDeploymentResponse, error) {
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		input.IdempotencyKey = uuid.NewString()
	}
	path := fmt.Sprintf("/v1/apps/%s/deployments", url.PathEscape(appID))
	var resp CreateDeploymentResponse
	if err := c.do(ctx, http.MethodPost, path, input, token, &resp); err != nil {
		return CreateDeploymentResponse{}, err
	}
	return resp, nil
}

// UploadArtifact streams the packaged bundle to the upload URL returned by
// CreateDeployment. The URL may be presigned for a different host, so no
// bearer token is attached.
func (c *Client) UploadArtifact(ctx context.Context, uploadURL, artifactPath string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(uploadURL) == "" {
		return fmt.Errorf("upload url is empty")
	}
	f, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, f)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/gzip")

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}
	return nil
}

// TriggerDeployment starts the rollout of an uploaded deployment.
func (c *Client) TriggerDeployment(ctx context.Context, token string, deploymentID int64) error {
	path := fmt.Sprintf("/v1/deployments/%d/trigger", deploymentID)
	return c.do(ctx, http.MethodPost, path, nil, token, nil)
}

// DeploymentStatusResponse reports the current state of a deployment. URL is
// populated once the deployment serves traffic.
type DeploymentStatusResponse struct {
	Deployment Deployment `json:"deployment"`
	URL        string     `json:"url,omitempty"`
}

// DeploymentStatus fetches the current status of a deployment.
func (c *Client) DeploymentStatus(ctx context.Context, token string, deploymentID int64) (DeploymentStatusResponse, error) {
	path := fmt.Sprintf("/v1/deployments/%d", deploymentID)
	var resp DeploymentStatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, token, &resp); err != nil {
		return DeploymentStatusResponse{}, err
	}
	return resp, nil
}

// DeploymentLogs returns the cumulative log text for a deployment, from
// start to now. The text only ever grows between calls.
func (c *Client) DeploymentLogs(ctx context.Context, token string, deploymentID int64) (string, error) {
	path := fmt.Sprintf("/v1/deployments/%d/logs", deploymentID)
	var payload struct {
		Logs string `json:"logs"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, token, &payload); err != nil {
		return "", err
	}
	return payload.Logs, nil
}

// ListDeployments fetches recent deployments for an app.
func (c *Client) ListDeployments(ctx context.Context, token, appID string, limit int) ([]Deployment, error) {
	query := ""
	if limit > 0 {
		query = fmt.Sprintf("?limit=%d", limit)
	}
	path := fmt.Sprintf("/v1/apps/%s/deployments%s", url.PathEscape(appID), query)
	var deployments []Deployment
	if err := c.do(ctx, http.MethodGet, path, nil, token, &deployments); err != nil {
		return nil, err
	}
	return deployments, nil
}

// EnvVar represents an environment variable attached to an app.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ListEnvVars returns environment variables for the app.
func (c *Client) ListEnvVars(ctx context.Context, token, appID string) ([]EnvVar, error) {
	path := fmt.Sprintf("/v1/apps/%s/env", url.PathEscape(appID))
	var vars []EnvVar
	if err := c.do(ctx, http.MethodGet, path, nil, token, &vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// SetEnvVar stores or replaces an environment variable for an app.
func (c *Client) SetEnvVar(ctx context.Context, token, appID string, input EnvVar) error {
	path := fmt.Sprintf("/v1/apps/%s/env", url.PathEscape(appID))
	return c.do(ctx, http.MethodPost, path, input, token, nil)
}

// DeleteEnvVar removes an environment variable from an app.
func (c *Client) DeleteEnvVar(ctx context.Context, token, appID, key string) error {
	path := fmt.Sprintf("/v1/apps/%s/env/%s", url.PathEscape(appID), url.PathEscape(key))
	return c.do(ctx, http.MethodDelete, path, nil, token, nil)
}

// Domain describes a custom hostname attached to an app.
type Domain struct {
	Hostname   string     `json:"hostname"`
	Status     string     `json:"status"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// ListDomains returns custom domains for the app.
func (c *Client) ListDomains(ctx context.Context, token, appID string) ([]Domain, error) {
	path := fmt.Sprintf("/v1/apps/%s/domains", url.PathEscape(appID))
	var domains []Domain
	if err := c.do(ctx, http.MethodGet, path, nil, token, &domains); err != nil {
		return nil, err
	}
	return domains, nil
}

// AddDomain attaches a custom hostname to an app.
func (c *Client) AddDomain(ctx context.Context, token, appID, hostname string) (Domain, error) {
	path := fmt.Sprintf("/v1/apps/%s/domains", url.PathEscape(appID))
	body := map[string]string{"hostname": hostname}
	var domain Domain
	if err := c.do(ctx, http.MethodPost, path, body, token, &domain); err != nil {
		return Domain{}, err
	}
	return domain, nil
}

// RemoveDomain detaches a custom hostname from an app.
func (c *Client) RemoveDomain(ctx context.Context, token, appID, hostname string) error {
	path := fmt.Sprintf("/v1/apps/%s/domains/%s", url.PathEscape(appID), url.PathEscape(hostname))
	return c.do(ctx, http.MethodDelete, path, nil, token, nil)
}

// BillingSummary reports the subscription tier and deployment usage.
type BillingSummary struct {
	Plan             string     `json:"plan"`
	DeploymentsUsed  int        `json:"deployments_used"`
	DeploymentsLimit int        `json:"deployments_limit"`
	RenewsAt         *time.Time `json:"renews_at,omitempty"`
}

// Billing returns the account's subscription and usage summary.
func (c *Client) Billing(ctx context.Context, token string) (BillingSummary, error) {
	var summary BillingSummary
	if err := c.do(ctx, http.MethodGet, "/v1/billing", nil, token, &summary); err != nil {
		return BillingSummary{}, err
	}
	return summary, nil
}
