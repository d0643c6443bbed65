package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/huntsync/server/internal/models"
)

// Client is the HTTP client for the hunt server. All blocking calls
// take a context; methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	lockToken string
}

// NewClient creates a Client for the given server base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// SetHTTPClient overrides the underlying HTTP client (tests, proxies)
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// LockToken returns the current lock token, empty before acquisition
func (c *Client) LockToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lockToken
}

func (c *Client) setLockToken(token string) {
	c.mu.Lock()
	c.lockToken = token
	c.mu.Unlock()
}

// AcquireLock claims the team's device slot and remembers the token.
// Returns LockConflictError when another device is active.
func (c *Client) AcquireLock(ctx context.Context, teamCode, deviceFingerprint string) (*models.LockGrant, error) {
	body, err := json.Marshal(models.AcquireLockRequest{
		TeamCode:          teamCode,
		DeviceFingerprint: deviceFingerprint,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/lock/acquire", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var grant models.LockGrant
		if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
			return nil, err
		}
		c.setLockToken(grant.LockToken)
		return &grant, nil
	case http.StatusUnauthorized:
		return nil, &ValidationError{Reason: "invalid team code"}
	case http.StatusConflict:
		var conflict models.LockConflictResponse
		_ = json.NewDecoder(resp.Body).Decode(&conflict)
		return nil, &LockConflictError{ExpiresAt: conflict.ExpiresAt}
	default:
		return nil, serverErrorFrom(resp)
	}
}

// ReleaseLock drops the device slot on logout
func (c *Client) ReleaseLock(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/lock", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return serverErrorFrom(resp)
	}
	c.setLockToken("")
	return nil
}

// GetProgress fetches the team's server-side snapshot
func (c *Client) GetProgress(ctx context.Context, orgID, teamID, huntID string) (models.ProgressSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.progressURL(orgID, teamID, huntID), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverErrorFrom(resp)
	}

	var snapshot models.ProgressSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// PutProgress replaces the server-side snapshot wholesale
func (c *Client) PutProgress(ctx context.Context, orgID, teamID, huntID string, snapshot models.ProgressSnapshot, sessionID string) error {
	body, err := json.Marshal(models.SaveProgressRequest{
		Snapshot:  snapshot,
		SessionID: sessionID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.progressURL(orgID, teamID, huntID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		return &ValidationError{Reason: errorMessageFrom(resp)}
	default:
		return serverErrorFrom(resp)
	}
}

// GetActive fetches the consolidated read the store seeds from
func (c *Client) GetActive(ctx context.Context, orgID, teamID, huntID string) (*models.ActiveResponse, error) {
	path := fmt.Sprintf("%s/api/active/%s/%s/%s", c.baseURL,
		url.PathEscape(orgID), url.PathEscape(teamID), url.PathEscape(huntID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverErrorFrom(resp)
	}

	var active models.ActiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&active); err != nil {
		return nil, err
	}
	return &active, nil
}

// UploadOrchestrated stores the image and links it to progress as one
// server-side operation. Requires full team/org/hunt identity.
func (c *Client) UploadOrchestrated(ctx context.Context, data []byte, mimeType, filename, stopTitle string, uctx models.UploadContext) (*models.UploadResult, error) {
	fields := map[string]string{
		"stopId":    uctx.StopID,
		"teamId":    uctx.TeamID,
		"orgId":     uctx.OrgID,
		"huntId":    uctx.HuntID,
		"stopTitle": stopTitle,
		"sessionId": uctx.SessionID,
	}
	return c.upload(ctx, "/api/upload/orchestrated", data, mimeType, filename, fields)
}

// UploadSigned stores the image only; linking is the caller's job
func (c *Client) UploadSigned(ctx context.Context, data []byte, mimeType, filename, stopTitle string, uctx models.UploadContext) (*models.UploadResult, error) {
	fields := map[string]string{
		"stopTitle":    stopTitle,
		"sessionId":    uctx.SessionID,
		"teamName":     uctx.TeamName,
		"locationName": uctx.LocationName,
		"eventName":    uctx.EventName,
	}
	return c.upload(ctx, "/api/upload/signed", data, mimeType, filename, fields)
}

// UploadLegacy is the last-resort path without size/resize enforcement
func (c *Client) UploadLegacy(ctx context.Context, data []byte, mimeType, filename, stopTitle string, uctx models.UploadContext) (*models.UploadResult, error) {
	fields := map[string]string{
		"stopTitle":    stopTitle,
		"sessionId":    uctx.SessionID,
		"teamName":     uctx.TeamName,
		"locationName": uctx.LocationName,
		"eventName":    uctx.EventName,
	}
	return c.upload(ctx, "/api/upload/legacy", data, mimeType, filename, fields)
}

func (c *Client) upload(ctx context.Context, path string, data []byte, mimeType, filename string, fields map[string]string) (*models.UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}

	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var result models.UploadResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, err
		}
		return &result, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &ValidationError{Reason: errorMessageFrom(resp)}
	default:
		return nil, serverErrorFrom(resp)
	}
}

func (c *Client) progressURL(orgID, teamID, huntID string) string {
	return fmt.Sprintf("%s/api/progress/%s/%s/%s", c.baseURL,
		url.PathEscape(orgID), url.PathEscape(teamID), url.PathEscape(huntID))
}

func (c *Client) authorize(req *http.Request) {
	if token := c.LockToken(); token != "" {
		req.Header.Set("X-Lock-Token", token)
	}
}

func errorMessageFrom(resp *http.Response) string {
	var body models.ErrorResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(resp.StatusCode)
}

func serverErrorFrom(resp *http.Response) error {
	return &ServerError{
		StatusCode: resp.StatusCode,
		Message:    errorMessageFrom(resp),
	}
}
