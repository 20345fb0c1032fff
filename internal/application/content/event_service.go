package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errEventNotFound = shared.NewDomainError("EVENT_NOT_FOUND", "Event not found")

// EventService manages farm events
type EventService struct {
	repo   content.FarmEventRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(repo content.FarmEventRepository, logger *zap.Logger) *EventService {
	return &EventService{repo: repo, logger: logger, now: time.Now}
}

// Create schedules an event
func (s *EventService) Create(ctx context.Context, farmerID uuid.UUID, req EventRequest) (*EventResponse, error) {
	event, err := content.NewFarmEvent(farmerID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to save event: %w", err)
	}
	s.logger.Info("Event scheduled",
		zap.String("event_id", event.ID.String()),
		zap.String("farmer_id", farmerID.String()),
		zap.Time("starts_at", event.StartsAt))
	resp := toEventResponse(event)
	return &resp, nil
}

// Get returns one of the farmer's events
func (s *EventService) Get(ctx context.Context, farmerID, eventID uuid.UUID) (*EventResponse, error) {
	event, err := s.loadOwned(ctx, farmerID, eventID)
	if err != nil {
		return nil, err
	}
	resp := toEventResponse(event)
	return &resp, nil
}

// ListMine lists the farmer's events, past and cancelled included
func (s *EventService) ListMine(ctx context.Context, farmerID uuid.UUID, req ListEventsRequest) (shared.Paginated[EventResponse], error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "starts_at",
		OrderDir: "desc",
	}.Normalize().With(content.FilterFarmerID, farmerID)
	if req.Status != "" {
		filter = filter.With(content.FilterStatus, content.EventStatus(req.Status))
	}
	events, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[EventResponse]{}, err
	}
	return paginateEvents(events, total, filter.Page, filter.PageSize), nil
}

// Update reschedules an event
func (s *EventService) Update(ctx context.Context, farmerID, eventID uuid.UUID, req EventRequest) (*EventResponse, error) {
	event, err := s.loadOwned(ctx, farmerID, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.Reschedule(req.details()); err != nil {
		return nil, err
	}
	return s.save(ctx, event)
}

// Cancel calls an event off
func (s *EventService) Cancel(ctx context.Context, farmerID, eventID uuid.UUID) (*EventResponse, error) {
	event, err := s.loadOwned(ctx, farmerID, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.Cancel(); err != nil {
		return nil, err
	}
	return s.save(ctx, event)
}

// Delete removes an event
func (s *EventService) Delete(ctx context.Context, farmerID, eventID uuid.UUID) error {
	event, err := s.loadOwned(ctx, farmerID, eventID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// ListUpcoming lists scheduled events that have not ended, soonest first
func (s *EventService) ListUpcoming(ctx context.Context, req ListEventsRequest) (shared.Paginated[EventResponse], error) {
	filter := shared.Filter{Page: req.Page, PageSize: req.PageSize}.Normalize()
	events, total, err := s.repo.FindUpcoming(ctx, req.FarmerID, s.now(), filter.Page, filter.PageSize)
	if err != nil {
		return shared.Paginated[EventResponse]{}, err
	}
	return paginateEvents(events, total, filter.Page, filter.PageSize), nil
}

func (s *EventService) save(ctx context.Context, event *content.FarmEvent) (*EventResponse, error) {
	if err := s.repo.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to save event: %w", err)
	}
	s.logger.Info("Event updated",
		zap.String("event_id", event.ID.String()),
		zap.String("status", string(event.Status)))
	resp := toEventResponse(event)
	return &resp, nil
}

func (s *EventService) loadOwned(ctx context.Context, farmerID, eventID uuid.UUID) (*content.FarmEvent, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errEventNotFound
		}
		return nil, err
	}
	if event.FarmerID != farmerID {
		return nil, errEventNotFound
	}
	return event, nil
}

func paginateEvents(events []content.FarmEvent, total int64, page, pageSize int) shared.Paginated[EventResponse] {
	items := make([]EventResponse, len(events))
	for i := range events {
		items[i] = toEventResponse(&events[i])
	}
	return shared.NewPaginated(items, total, page, pageSize)
}
