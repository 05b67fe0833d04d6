package v1

import (
	"strings"

	"github.com/shenikar/civic_issue_map/internal/models"
)

// DTOToIssueModel преобразует DTO создания в доменную модель
func DTOToIssueModel(dto CreateIssueRequest) *models.Issue {
	issue := &models.Issue{
		Title:       strings.TrimSpace(dto.Title),
		Description: dto.Description,
		Category:    models.Category(dto.Category),
		Coords:      dto.Coords,
	}
	if dto.ImageURL != nil && *dto.ImageURL != "" {
		url := *dto.ImageURL
		issue.ImageURL = &url
	}
	return issue
}

// ModelToIssueResponse преобразует доменную модель в DTO для ответа
func ModelToIssueResponse(model *models.Issue) *IssueResponse {
	return &IssueResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Coords:      model.Coords,
		ImageURL:    model.ImageURL,
		Category:    string(model.Category),
		CreatedAt:   millis(model.CreatedAt),
	}
}

// ModelsToIssueResponses преобразует слайс моделей в слайс DTO
func ModelsToIssueResponses(issues []*models.Issue) []*IssueResponse {
	responses := make([]*IssueResponse, len(issues))
	for i, model := range issues {
		responses[i] = ModelToIssueResponse(model)
	}
	return responses
}

func ModelToClassificationResponse(model *models.Classification) *ClassificationResponse {
	labels := model.Labels
	if labels == nil {
		labels = []string{}
	}
	return &ClassificationResponse{
		Category:   string(model.Category),
		Confidence: model.Confidence,
		Labels:     labels,
	}
}

func ModelToGroupResponse(model *models.Group) *GroupResponse {
	members := model.Members
	if members == nil {
		members = []string{}
	}
	return &GroupResponse{
		ID:        model.ID,
		IssueID:   model.IssueID,
		Name:      model.Name,
		Members:   members,
		CreatedAt: millis(model.CreatedAt),
	}
}

func ModelsToGroupResponses(groups []*models.Group) []*GroupResponse {
	responses := make([]*GroupResponse, len(groups))
	for i, model := range groups {
		responses[i] = ModelToGroupResponse(model)
	}
	return responses
}

// DTOToMessageModel преобразует запрос на отправку в сообщение группы
func DTOToMessageModel(groupID string, dto SendMessageRequest) *models.ChatMessage {
	return &models.ChatMessage{
		GroupID:    groupID,
		SenderID:   dto.SenderID,
		SenderName: dto.SenderName,
		Text:       dto.Text,
	}
}

func ModelToMessageResponse(model *models.ChatMessage) *MessageResponse {
	return &MessageResponse{
		ID:         model.ID,
		GroupID:    model.GroupID,
		SenderID:   model.SenderID,
		SenderName: model.SenderName,
		Text:       model.Text,
		CreatedAt:  millis(model.CreatedAt),
	}
}

func ModelsToMessageResponses(msgs []*models.ChatMessage) []*MessageResponse {
	responses := make([]*MessageResponse, len(msgs))
	for i, model := range msgs {
		responses[i] = ModelToMessageResponse(model)
	}
	return responses
}

func ModelToUserResponse(model *models.User) *UserResponse {
	return &UserResponse{
		ID:        model.ID,
		Username:  model.Username,
		CreatedAt: millis(model.CreatedAt),
	}
}

func millis(m models.Millis) int64 {
	if m.IsZero() {
		return 0
	}
	return m.UnixMilli()
}
