package main

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shenikar/civic_issue_map/internal/mapsync"
	"github.com/shenikar/civic_issue_map/internal/models"
)

// палитра имен отправителей
var senderColors = []lipgloss.Color{"#60A5FA", "#F472B6", "#34D399", "#FBBF24", "#A78BFA", "#F87171"}

var (
	timeStyle   = lipgloss.NewStyle().Faint(true)
	selfStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5E7EB"))
	systemStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#9CA3AF"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

func senderLabel(msg *models.ChatMessage) string {
	if msg.SenderName != nil && strings.TrimSpace(*msg.SenderName) != "" {
		return *msg.SenderName
	}
	if len(msg.SenderID) > 8 {
		return msg.SenderID[:8]
	}
	return msg.SenderID
}

func senderColor(senderID string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(senderID))
	return senderColors[h.Sum32()%uint32(len(senderColors))]
}

func renderMessage(msg *models.ChatMessage, selfID string) string {
	stamp := "--:--"
	if !msg.CreatedAt.IsZero() {
		stamp = msg.CreatedAt.In(time.Local).Format("15:04")
	}

	name := lipgloss.NewStyle().Foreground(senderColor(msg.SenderID)).Render(senderLabel(msg))
	if msg.SenderID == selfID {
		name = selfStyle.Render(senderLabel(msg))
	}
	return fmt.Sprintf("%s %s: %s", timeStyle.Render(stamp), name, msg.Text)
}

func renderCategory(c models.Category) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(mapsync.ColorFor(c))).Render("● " + string(c))
}

func renderIssue(issue *models.Issue) string {
	return fmt.Sprintf("%s  %s", renderCategory(issue.Category), issue.Title)
}

func renderGroup(group *models.Group) string {
	return fmt.Sprintf("%s  %s (%d members)", group.ID, group.Name, len(group.Members))
}

func renderSystem(format string, args ...any) string {
	return systemStyle.Render(fmt.Sprintf(format, args...))
}

func renderError(err error) string {
	return errorStyle.Render("error: " + err.Error())
}
