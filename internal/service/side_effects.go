package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Handler names, used in logs and metrics.
const (
	HandlerActivityLog  = "activity_log"
	HandlerBroadcast    = "realtime_broadcast"
	HandlerNotification = "assignment_notification"
)

// SideEffects turns item events into audit rows, broadcasts and inbox entries.
type SideEffects struct {
	activity      repository.ActivityRepository
	notifications repository.NotificationRepository
	publisher     realtime.Publisher
	logger        *zap.Logger
}

// NewSideEffects creates the handlers. A nil publisher disables broadcasts.
func NewSideEffects(repos *repository.Repositories, publisher realtime.Publisher, logger *zap.Logger) *SideEffects {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SideEffects{
		activity:      repos.Activity,
		notifications: repos.Notifications,
		publisher:     publisher,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to events.
func (s *SideEffects) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, HandlerActivityLog, s.appendActivity)
		dispatcher.Subscribe(eventType, HandlerBroadcast, s.broadcast)
	}
	dispatcher.Subscribe(events.EventItemAssigned, HandlerNotification, s.notifyAssignee)
}

func (s *SideEffects) appendActivity(ctx context.Context, event events.Event) error {
	entry := &domain.ActivityLogEntry{
		Type:        event.Kind,
		Action:      activityAction(event.Type),
		Title:       event.ItemTitle,
		Description: describe(event),
		UserID:      event.Actor.ID,
		ItemID:      event.ItemID,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *SideEffects) broadcast(ctx context.Context, event events.Event) error {
	return s.publisher.Publish(ctx, realtime.ChannelFor(event.Kind), realtime.Message{
		Type:          string(event.Type),
		EntityID:      event.ItemID,
		ChangeSummary: changeSummary(event),
		ActorID:       event.Actor.ID,
		Timestamp:     event.Timestamp,
	})
}

func (s *SideEffects) notifyAssignee(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ItemAssignedPayload)
	if !ok || payload.Assignee == "" {
		return nil
	}
	if payload.Assignee == event.Actor.ID {
		s.logger.Debug("skipping self-assignment notification", zap.String("item_id", event.ItemID))
		return nil
	}

	itemID := event.ItemID
	kind := event.Kind
	verb := "assigned"
	if payload.PreviousAssignee != nil {
		verb = "reassigned"
	}
	n := &domain.Notification{
		UserID:   payload.Assignee,
		Title:    fmt.Sprintf("%s %s to you", kindLabel(kind), verb),
		Message:  fmt.Sprintf("%s %s %q to you", event.Actor.DisplayName(), verb, event.ItemTitle),
		Type:     domain.NotificationAssignment,
		ItemID:   &itemID,
		ItemType: &kind,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return s.publisher.Publish(ctx, realtime.ChannelNotifications, realtime.Message{
		Type:          string(domain.NotificationAssignment),
		EntityID:      n.ID,
		ChangeSummary: n.Title,
		ActorID:       event.Actor.ID,
		RecipientID:   n.UserID,
		Timestamp:     event.Timestamp,
	})
}

func activityAction(t events.EventType) domain.ActivityAction {
	switch t {
	case events.EventItemCreated:
		return domain.ActionCreated
	case events.EventItemStatusChanged:
		return domain.ActionStatusChanged
	case events.EventItemAssigned:
		return domain.ActionAssigned
	case events.EventItemDeleted:
		return domain.ActionDeleted
	case events.EventAttachmentAdded:
		return domain.ActionAttachment
	default:
		return domain.ActionUpdated
	}
}

// describe renders "Name (email, role) <summary> on <kind> "<title>"".
func describe(event events.Event) string {
	actor := event.Actor.DisplayName()
	if actor == "" {
		actor = "unknown user"
	}
	var who string
	switch {
	case event.Actor.Email != "" && event.Actor.Email != actor:
		who = fmt.Sprintf("%s (%s, %s)", actor, event.Actor.Email, event.Actor.Role)
	default:
		who = fmt.Sprintf("%s (%s)", actor, event.Actor.Role)
	}
	return fmt.Sprintf("%s: %s on %s %q", who, strings.ToLower(changeSummary(event)), event.Kind, event.ItemTitle)
}

func changeSummary(event events.Event) string {
	label := kindLabel(event.Kind)
	switch payload := event.Payload.(type) {
	case events.ItemStatusChangedPayload:
		return fmt.Sprintf("Status changed from %s to %s", payload.OldStatus, payload.NewStatus)
	case events.ItemUpdatedPayload:
		return "Updated " + strings.Join(payload.Fields, ", ")
	case events.ItemAssignedPayload:
		if payload.PreviousAssignee != nil {
			return label + " reassigned"
		}
		return label + " assigned"
	case events.AttachmentAddedPayload:
		return fmt.Sprintf("Attachment %s added", payload.FileName)
	}
	switch event.Type {
	case events.EventItemCreated:
		return label + " created"
	case events.EventItemDeleted:
		return label + " deleted"
	}
	return label + " changed"
}

func kindLabel(kind domain.ItemKind) string {
	if kind == domain.KindRequirement {
		return "Requirement"
	}
	return "Incident"
}
