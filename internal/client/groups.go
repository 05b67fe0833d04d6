package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shenikar/civic_issue_map/internal/models"
)

func (c *Client) ListGroups(ctx context.Context, issueID string) ([]*models.Group, error) {
	var groups []*models.Group
	path := "/groups?issueId=" + url.QueryEscape(issueID)
	if err := c.do(ctx, http.MethodGet, path, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup создает группу; creatorID становится первым участником, если не пуст
func (c *Client) CreateGroup(ctx context.Context, issueID, name, creatorID string) (*models.Group, error) {
	in := struct {
		IssueID string   `json:"issueId"`
		Name    string   `json:"name"`
		Members []string `json:"members,omitempty"`
	}{IssueID: issueID, Name: name}
	if creatorID != "" {
		in.Members = []string{creatorID}
	}

	var group models.Group
	if err := c.do(ctx, http.MethodPost, "/groups", in, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *Client) JoinGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	return c.membership(ctx, groupID, "join", userID)
}

func (c *Client) LeaveGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	return c.membership(ctx, groupID, "leave", userID)
}

func (c *Client) membership(ctx context.Context, groupID, action, userID string) (*models.Group, error) {
	in := struct {
		UserID string `json:"userId"`
	}{UserID: userID}

	var group models.Group
	if err := c.do(ctx, http.MethodPost, "/groups/"+url.PathEscape(groupID)+"/"+action, in, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *Client) ListMessages(ctx context.Context, groupID string) ([]*models.ChatMessage, error) {
	var msgs []*models.ChatMessage
	if err := c.do(ctx, http.MethodGet, "/groups/"+url.PathEscape(groupID)+"/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage отправляет сообщение и возвращает его в виде, сохраненном сервером
func (c *Client) SendMessage(ctx context.Context, groupID, senderID, text string, senderName *string) (*models.ChatMessage, error) {
	in := struct {
		SenderID   string  `json:"senderId"`
		SenderName *string `json:"senderName,omitempty"`
		Text       string  `json:"text"`
	}{SenderID: senderID, SenderName: senderName, Text: text}

	var msg models.ChatMessage
	if err := c.do(ctx, http.MethodPost, "/groups/"+url.PathEscape(groupID)+"/messages", in, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
