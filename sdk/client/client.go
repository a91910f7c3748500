// Package client is a Go client for the pathway HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

// Config represents the configuration for the pathway client
type Config struct {
	// BaseURL is the base URL of the API, without the /api suffix
	BaseURL string
	// HTTPClient is an optional custom HTTP client
	HTTPClient *http.Client
	// Timeout is the default request timeout
	Timeout time.Duration
	// Token is an optional bearer token, see also Login
	Token string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8080",
		HTTPClient: http.DefaultClient,
		Timeout:    10 * time.Second,
	}
}

// Client is the pathway API client. It is not safe to call Login
// concurrently with other methods.
type Client struct {
	config *Config
	client *http.Client
	token  string
}

// NewClient creates a new client with the given configuration
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		config: config,
		client: client,
		token:  config.Token,
	}
}

// Token returns the bearer token sent with each request.
func (c *Client) Token() string {
	return c.token
}

// APIError represents an error response from the API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Code       string `json:"error_code,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// Error codes returned by the API.
const (
	CodeInvalidInput      = "invalid_input"
	CodeNotAuthorized     = "not_authorized"
	CodeNotFound          = "not_found"
	CodeAlreadyApplied    = "already_applied"
	CodeOrganizationLimit = "organization_limit_reached"
	CodeStaleState        = "stale_state"
	CodeOfferingClosed    = "offering_closed"
	CodeInvalidTransition = "invalid_transition"
)

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// LoginResponse is returned by Login and Signup.
type LoginResponse struct {
	Status string      `json:"status,omitempty"`
	User   *model.User `json:"user"`
	Token  string      `json:"token"`
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	var resp LoginResponse
	req := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// SignupRequest represents an account registration
type SignupRequest struct {
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Role             model.Role `json:"role"`
	OrganizationName string     `json:"organization_name,omitempty"`
	Location         string     `json:"location,omitempty"`
	Password         string     `json:"password"`
	ConfirmPassword  string     `json:"confirm_password"`
}

// Signup registers an account. The returned token is kept, but most calls
// fail with email_not_verified until the account is verified.
func (c *Client) Signup(ctx context.Context, req *SignupRequest) (*LoginResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	var resp LoginResponse
	if err := c.post(ctx, "/api/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// OfferingFilter narrows ListOfferings. Zero fields are not sent.
type OfferingFilter struct {
	OrganizationID *uuid.UUID
	Kind           model.OfferingKind
	Status         model.OfferingStatus
	Search         string
	Offset         int
	Limit          int
}

func (f OfferingFilter) values() url.Values {
	v := url.Values{}
	if f.OrganizationID != nil {
		v.Set("organization_id", f.OrganizationID.String())
	}
	if f.Kind != "" {
		v.Set("kind", string(f.Kind))
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.Search != "" {
		v.Set("q", f.Search)
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// ListOfferings returns a page of offerings and the total matching filter.
func (c *Client) ListOfferings(ctx context.Context, filter OfferingFilter) ([]model.Offering, int64, error) {
	var resp struct {
		Data  []model.Offering `json:"data"`
		Total int64            `json:"total"`
	}
	if err := c.get(ctx, "/api/offerings", filter.values(), &resp); err != nil {
		return nil, 0, err
	}
	return resp.Data, resp.Total, nil
}

// GetOffering returns one offering
func (c *Client) GetOffering(ctx context.Context, id uuid.UUID) (*model.Offering, error) {
	var resp struct {
		Data model.Offering `json:"data"`
	}
	if err := c.get(ctx, "/api/offerings/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ApplicationResponse is an application with the events the caller may
// send next.
type ApplicationResponse struct {
	Application   *model.Application `json:"application"`
	AllowedEvents []admission.Event  `json:"allowed_events"`
}

// Apply submits an application for the logged in student.
func (c *Client) Apply(ctx context.Context, offeringID uuid.UUID) (*ApplicationResponse, error) {
	if offeringID == uuid.Nil {
		return nil, errors.New("offering id is required")
	}

	var resp ApplicationResponse
	req := map[string]uuid.UUID{"offering_id": offeringID}
	if err := c.post(ctx, "/api/applications", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListApplications returns the applications visible to the caller. An empty
// status returns every status.
func (c *Client) ListApplications(ctx context.Context, status model.ApplicationStatus) ([]model.Application, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {string(status)}}
	}

	var resp struct {
		Data []model.Application `json:"data"`
	}
	if err := c.get(ctx, "/api/applications", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetApplication returns one application
func (c *Client) GetApplication(ctx context.Context, id uuid.UUID) (*ApplicationResponse, error) {
	var resp ApplicationResponse
	if err := c.get(ctx, "/api/applications/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Summary returns the aggregate counts over the caller's applications.
func (c *Client) Summary(ctx context.Context) (*admission.Summary, error) {
	var resp struct {
		Data admission.Summary `json:"data"`
	}
	if err := c.get(ctx, "/api/applications/summary", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Review approves or rejects an application. expected is the status the
// caller last saw; a stale value fails with CodeStaleState.
func (c *Client) Review(ctx context.Context, id uuid.UUID, event admission.Event, expected model.ApplicationStatus) (*ApplicationResponse, error) {
	return c.transition(ctx, id, "review", event, expected)
}

// Respond accepts or declines an approved application. Once a response is
// recorded, further calls fail with CodeInvalidTransition.
func (c *Client) Respond(ctx context.Context, id uuid.UUID, event admission.Event, expected model.ApplicationStatus) (*ApplicationResponse, error) {
	return c.transition(ctx, id, "respond", event, expected)
}

func (c *Client) transition(ctx context.Context, id uuid.UUID, action string, event admission.Event, expected model.ApplicationStatus) (*ApplicationResponse, error) {
	if event == "" || expected == "" {
		return nil, errors.New("event and expected status are required")
	}

	var resp ApplicationResponse
	req := map[string]string{"event": string(event), "expected_status": string(expected)}
	if err := c.post(ctx, fmt.Sprintf("/api/applications/%s/%s", id, action), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteApplication removes an application. Only admins and the owning
// organization may.
func (c *Client) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	return c.delete(ctx, "/api/applications/"+id.String())
}

// Notifications returns the caller's notifications and the unread count.
func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]model.Notification, int64, error) {
	var query url.Values
	if unreadOnly {
		query = url.Values{"unread": {"true"}}
	}

	var resp struct {
		Notifications []model.Notification `json:"notifications"`
		Unread        int64                `json:"unread"`
	}
	if err := c.get(ctx, "/api/notifications", query, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Notifications, resp.Unread, nil
}

// MarkAllRead marks every notification read
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.post(ctx, "/api/notifications/read", nil, nil)
}

// post performs a POST request to the specified path and unmarshals the response into resp
func (c *Client) post(ctx context.Context, path string, req interface{}, resp interface{}) error {
	var body io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, http.MethodPost, path, nil, body, resp)
}

// get performs a GET request to the specified path and unmarshals the response into resp
func (c *Client) get(ctx context.Context, path string, query url.Values, resp interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, resp)
}

// delete performs a DELETE request to the specified path
func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, resp interface{}) error {
	// Set up context with timeout
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	// Create HTTP request
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Send request
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	// Check for non-success status code
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		// Try to decode error response
		var apiErr APIError
		if err := json.NewDecoder(httpResp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			// If we can't decode the error, create a generic one
			return &APIError{
				StatusCode: httpResp.StatusCode,
				Message:    fmt.Sprintf("request failed with status code %d", httpResp.StatusCode),
			}
		}

		apiErr.StatusCode = httpResp.StatusCode
		return &apiErr
	}

	if resp == nil || httpResp.StatusCode == http.StatusNoContent {
		return nil
	}

	// Decode response
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
