package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/sirupsen/logrus"
)

type groupService struct {
	groups GroupRepository
	issues IssueRepository
	logger *logrus.Logger
	now    func() time.Time
}

func NewGroupService(groups GroupRepository, issues IssueRepository, logger *logrus.Logger) GroupService {
	return &groupService{
		groups: groups,
		issues: issues,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListGroups возвращает группы проблемы
func (s *groupService) ListGroups(ctx context.Context, issueID string) ([]*models.Group, error) {
	groups, err := s.groups.ListByIssue(ctx, issueID)
	if err != nil {
		s.logger.WithField("issue_id", issueID).WithError(err).Error("Failed to list groups from repository")
		return nil, fmt.Errorf("service: could not list groups: %w", err)
	}
	return groups, nil
}

// CreateGroup создает группу; создатель становится первым участником
func (s *groupService) CreateGroup(ctx context.Context, issueID, name, creatorID string) (*models.Group, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "group",
		"method":   "CreateGroup",
		"issue_id": issueID,
	})

	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		log.WithError(err).Warn("Attempted to create a group for a non-existent issue")
		return nil, fmt.Errorf("service: issue with id %s not found for group: %w", issueID, err)
	}

	group := &models.Group{
		ID:        uuid.NewString(),
		IssueID:   issueID,
		Name:      strings.TrimSpace(name),
		CreatedBy: creatorID,
		CreatedAt: models.NewMillis(s.now()),
	}
	group.Members = []string{creatorID}
	group.NormalizeMembers()

	if err := s.groups.Create(ctx, group); err != nil {
		log.WithError(err).Error("Failed to create group in repository")
		return nil, fmt.Errorf("service: could not create group: %w", err)
	}

	log.WithField("group_id", group.ID).Info("Group created successfully")
	return group, nil
}

// JoinGroup добавляет участника; повторное вступление ничего не меняет
func (s *groupService) JoinGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	return s.changeMembership(ctx, "JoinGroup", groupID, userID, true)
}

// LeaveGroup удаляет участника; выход не-участника ничего не меняет
func (s *groupService) LeaveGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	return s.changeMembership(ctx, "LeaveGroup", groupID, userID, false)
}

// changeMembership приводит членство к состоянию member. Хранилище не вызывается,
// если пользователь уже в нужном состоянии. Участники ответа уникальны
func (s *groupService) changeMembership(ctx context.Context, method, groupID, userID string, member bool) (*models.Group, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "group",
		"method":   method,
		"group_id": groupID,
		"user_id":  userID,
	})

	current, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		log.WithError(err).Warn("Attempted to change membership of a non-existent group")
		return nil, fmt.Errorf("service: group with id %s not found: %w", groupID, err)
	}
	if current.HasMember(userID) == member {
		log.Debug("Membership already up to date")
		current.NormalizeMembers()
		return current, nil
	}

	apply := s.groups.RemoveMember
	if member {
		apply = s.groups.AddMember
	}
	if err := apply(ctx, groupID, userID); err != nil {
		log.WithError(err).Error("Failed to change group membership")
		return nil, fmt.Errorf("service: could not update membership: %w", err)
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("service: could not reload group: %w", err)
	}
	group.NormalizeMembers()

	log.WithField("members", len(group.Members)).Info("Group membership updated")
	return group, nil
}
