package v1

// CreateIssueRequest DTO для создания проблемы
// @Description DTO для создания проблемы. createdAt клиента игнорируется
type CreateIssueRequest struct {
	Title       string    `json:"title" validate:"max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Coords      []float64 `json:"coords" validate:"required,coords"`
	ImageURL    *string   `json:"imageUrl" validate:"omitempty,url"`
	Category    string    `json:"category" validate:"omitempty,oneof=waste water vegetation rooftop unverified"`
}

// IssueResponse DTO для ответа с информацией о проблеме
// @Description DTO для ответа с информацией о проблеме
type IssueResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Coords      []float64 `json:"coords"`
	ImageURL    *string   `json:"imageUrl"`
	Category    string    `json:"category"`
	CreatedAt   int64     `json:"createdAt"`
}

// AnalyzeRequest DTO для классификации изображения
// @Description DTO для классификации изображения
type AnalyzeRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

// ClassificationResponse DTO с результатом классификации
// @Description DTO с результатом классификации
type ClassificationResponse struct {
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Labels     []string `json:"labels"`
}

// CreateGroupRequest DTO для создания группы. Первый из members становится создателем
// @Description DTO для создания группы
type CreateGroupRequest struct {
	IssueID string   `json:"issueId" validate:"required,uuid"`
	Name    string   `json:"name" validate:"required,max=100"`
	Members []string `json:"members" validate:"omitempty,max=1,dive,required,max=64"`
}

// MembershipRequest DTO для вступления в группу и выхода из нее
// @Description DTO для вступления в группу и выхода из нее
type MembershipRequest struct {
	UserID string `json:"userId" validate:"required,max=64"`
}

// GroupResponse DTO для ответа с информацией о группе
// @Description DTO для ответа с информацией о группе
type GroupResponse struct {
	ID        string   `json:"id"`
	IssueID   string   `json:"issueId"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"createdAt"`
}

// SendMessageRequest DTO для отправки сообщения
// @Description DTO для отправки сообщения
type SendMessageRequest struct {
	SenderID   string  `json:"senderId" validate:"required,max=64"`
	SenderName *string `json:"senderName" validate:"omitempty,max=64"`
	Text       string  `json:"text" validate:"required,max=2000"`
}

// MessageResponse DTO для ответа с сообщением чата
// @Description DTO для ответа с сообщением чата
type MessageResponse struct {
	ID         string  `json:"id"`
	GroupID    string  `json:"groupId"`
	SenderID   string  `json:"senderId"`
	SenderName *string `json:"senderName,omitempty"`
	Text       string  `json:"text"`
	CreatedAt  int64   `json:"createdAt"`
}

// CreateUserRequest DTO для регистрации имени
// @Description DTO для регистрации имени
type CreateUserRequest struct {
	Username string `json:"username"`
}

// UserResponse DTO для ответа с пользователем
// @Description DTO для ответа с пользователем
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"createdAt"`
}
