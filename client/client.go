// client/client.go
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"intentcfg/internal/intent"
	"intentcfg/internal/runtime"
	"intentcfg/internal/snapshot"
	syncsvc "intentcfg/internal/sync"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Code != "" {
		return fmt.Errorf("%s: %s", e.Code, e.Message)
	}
	return fmt.Errorf("unexpected status: %s", resp.Status)
}

// Intent operations

func (c *Client) CreateIntent(code, name, description string) (*intent.Intent, error) {
	data, err := json.Marshal(&intent.Intent{
		Code:        code,
		Name:        name,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/intents", c.baseURL),
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var result intent.Intent
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListIntents() ([]*intent.Intent, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/api/intents", c.baseURL))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var intents []*intent.Intent
	if err := json.NewDecoder(resp.Body).Decode(&intents); err != nil {
		return nil, err
	}
	return intents, nil
}

// Version operations

func (c *Client) CreateVersion(intentID, label, changeNote string) (*intent.Version, error) {
	data, err := json.Marshal(map[string]string{
		"label":       label,
		"change_note": changeNote,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/intents/%s/versions", c.baseURL, intentID),
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var result intent.Version
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ActivateVersion(versionID string) (*intent.Version, error) {
	return c.versionAction(versionID, "activate")
}

func (c *Client) OfflineVersion(versionID string) (*intent.Version, error) {
	return c.versionAction(versionID, "offline")
}

func (c *Client) versionAction(versionID, action string) (*intent.Version, error) {
	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/versions/%s/%s", c.baseURL, versionID, action),
		"application/json",
		nil,
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result intent.Version
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteVersion(versionID string) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/versions/%s", c.baseURL, versionID), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) CopyVersion(versionID, label, note string) (*intent.Version, error) {
	data, err := json.Marshal(map[string]string{
		"label": label,
		"note":  note,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/versions/%s/copy", c.baseURL, versionID),
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var result intent.Version
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Snapshot operations

func (c *Client) CreateSnapshot(name, scope string) (*snapshot.Snapshot, error) {
	data, err := json.Marshal(map[string]string{
		"name":  name,
		"scope": scope,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/snapshots", c.baseURL),
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var result snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListSnapshots() ([]*snapshot.Snapshot, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/api/snapshots", c.baseURL))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var snapshots []*snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (c *Client) GetSnapshot(id string) (*snapshot.Snapshot, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/api/snapshots/%s", c.baseURL, id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PublishSnapshot(id, publishedBy string) (*snapshot.Snapshot, error) {
	data, err := json.Marshal(map[string]string{
		"published_by": publishedBy,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/snapshots/%s/publish", c.baseURL, id),
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RollbackSnapshot(id, reason, operator string) (*snapshot.Snapshot, error) {
	data, err := json.Marshal(map[string]string{
		"reason":   reason,
		"operator": operator,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/snapshots/%s/rollback", c.baseURL, id),
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CompareSnapshots(baseID, targetID string) (*snapshot.CompareResult, error) {
	data, err := json.Marshal(map[string]string{
		"base_id":   baseID,
		"target_id": targetID,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/snapshots/compare", c.baseURL),
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result snapshot.CompareResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Config operations

func scopeQuery(scope runtime.Scope) string {
	q := url.Values{}
	if scope.Channel != "" {
		q.Set("channel", scope.Channel)
	}
	if scope.Tenant != "" {
		q.Set("tenant", scope.Tenant)
	}
	if scope.Region != "" {
		q.Set("region", scope.Region)
	}
	if scope.Env != "" {
		q.Set("env", scope.Env)
	}
	return q.Encode()
}

// FetchConfig gets the runtime config for a scope. Passing the etag from
// a previous fetch enables conditional requests: notModified reports a
// 304 with config left nil.
func (c *Client) FetchConfig(scope runtime.Scope, etag string) (cfg *runtime.Config, newEtag string, notModified bool, err error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/config?%s", c.baseURL, scopeQuery(scope)), nil)
	if err != nil {
		return nil, "", false, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, etag, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", false, decodeError(resp)
	}

	var result runtime.Config
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", false, err
	}
	return &result, resp.Header.Get("ETag"), false, nil
}

// Sync operations

func (c *Client) SyncScope(scope runtime.Scope) (string, error) {
	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/sync?%s", c.baseURL, scopeQuery(scope)),
		"application/json",
		nil,
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	var result struct {
		Outcome string `json:"outcome"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Outcome, nil
}

func (c *Client) SyncAll() (*syncsvc.BatchResult, error) {
	resp, err := c.httpClient.Post(fmt.Sprintf("%s/api/sync/all", c.baseURL), "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result syncsvc.BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
