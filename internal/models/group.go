package models

import "slices"

// Group - обсуждение, привязанное к проблеме
type Group struct {
	ID        string   `json:"id"`
	IssueID   string   `json:"issueId"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"createdBy,omitempty"`
	CreatedAt Millis   `json:"createdAt"`
}

// HasMember проверяет членство пользователя
func (g *Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// NormalizeMembers оставляет каждого участника один раз в порядке первого вступления
func (g *Group) NormalizeMembers() {
	seen := make(map[string]struct{}, len(g.Members))
	members := make([]string, 0, len(g.Members))
	for _, id := range g.Members {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	g.Members = members
}

// ChatMessage - сообщение в чате группы
type ChatMessage struct {
	ID         string  `json:"id"`
	GroupID    string  `json:"groupId"`
	SenderID   string  `json:"senderId"`
	SenderName *string `json:"senderName,omitempty"`
	Text       string  `json:"text"`
	CreatedAt  Millis  `json:"createdAt"`
}

// User - участник, выбравший отображаемое имя
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt Millis `json:"createdAt"`
}
