package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shenikar/civic_issue_map/internal/models"
)

// IssueDraft - данные новой проблемы. Пустая категория отдает выбор классификатору
type IssueDraft struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description"`
	Coords      []float64       `json:"coords"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
	Category    models.Category `json:"category,omitempty"`
}

func (c *Client) ListIssues(ctx context.Context) ([]*models.Issue, error) {
	var issues []*models.Issue
	if err := c.do(ctx, http.MethodGet, "/issues", nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (c *Client) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	var issue models.Issue
	if err := c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(id), nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) CreateIssue(ctx context.Context, draft IssueDraft) (*models.Issue, error) {
	var issue models.Issue
	if err := c.do(ctx, http.MethodPost, "/issues", draft, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// DeleteIssue удаляет проблему; требует ключ из WithAPIKey
func (c *Client) DeleteIssue(ctx context.Context, id string) error {
	path := "/admin/issues/" + url.PathEscape(id)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, http.MethodDelete, path)
}

// Analyze классифицирует изображение по ссылке
func (c *Client) Analyze(ctx context.Context, imageURL string) (*models.Classification, error) {
	in := struct {
		ImageURL string `json:"image_url"`
	}{ImageURL: imageURL}

	var result models.Classification
	if err := c.do(ctx, http.MethodPost, "/analyze", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateUser(ctx context.Context, username string) (*models.User, error) {
	in := struct {
		Username string `json:"username"`
	}{Username: username}

	var user models.User
	if err := c.do(ctx, http.MethodPost, "/users", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/system/health", nil, nil)
}
