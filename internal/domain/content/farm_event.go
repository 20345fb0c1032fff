package content

import (
	"strings"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EventStatus is the state of a farm event
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCancelled EventStatus = "cancelled"
)

// FarmEvent is an open day, market stall or workshop hosted by a farmer
type FarmEvent struct {
	shared.BaseAggregateRoot
	FarmerID    uuid.UUID   `gorm:"type:uuid;not null;index"`
	Title       string      `gorm:"type:varchar(200);not null"`
	Description string      `gorm:"type:text"`
	Location    string      `gorm:"type:varchar(255)"`
	StartsAt    time.Time   `gorm:"not null;index"`
	EndsAt      time.Time   `gorm:"not null"`
	Capacity    int         `gorm:"not null;default:0"`
	Status      EventStatus `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (FarmEvent) TableName() string {
	return "farm_events"
}

// EventDetails describes a farm event
type EventDetails struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int
}

func (d EventDetails) validate() error {
	if err := validateTitle(strings.TrimSpace(d.Title)); err != nil {
		return err
	}
	if d.StartsAt.IsZero() || d.EndsAt.IsZero() {
		return shared.NewDomainError("INVALID_SCHEDULE", "Start and end times are required")
	}
	if !d.EndsAt.After(d.StartsAt) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Event must end after it starts")
	}
	if d.Capacity < 0 {
		return shared.NewDomainError("INVALID_CAPACITY", "Capacity cannot be negative")
	}
	return nil
}

// NewFarmEvent schedules an event
func NewFarmEvent(farmerID uuid.UUID, d EventDetails) (*FarmEvent, error) {
	if farmerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FARMER", "Farmer is required")
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &FarmEvent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FarmerID:          farmerID,
		Title:             strings.TrimSpace(d.Title),
		Description:       d.Description,
		Location:          strings.TrimSpace(d.Location),
		StartsAt:          d.StartsAt,
		EndsAt:            d.EndsAt,
		Capacity:          d.Capacity,
		Status:            EventStatusScheduled,
	}, nil
}

// Reschedule replaces the event details
func (e *FarmEvent) Reschedule(d EventDetails) error {
	if e.Status == EventStatusCancelled {
		return shared.NewDomainError("EVENT_CANCELLED", "Cancelled events cannot be edited")
	}
	if err := d.validate(); err != nil {
		return err
	}
	e.Title = strings.TrimSpace(d.Title)
	e.Description = d.Description
	e.Location = strings.TrimSpace(d.Location)
	e.StartsAt = d.StartsAt
	e.EndsAt = d.EndsAt
	e.Capacity = d.Capacity
	e.IncrementVersion()
	return nil
}

// Cancel calls the event off
func (e *FarmEvent) Cancel() error {
	if e.Status == EventStatusCancelled {
		return shared.NewDomainError("ALREADY_CANCELLED", "Event is already cancelled")
	}
	e.Status = EventStatusCancelled
	e.IncrementVersion()
	return nil
}

// IsUpcoming reports whether a scheduled event has not ended yet
func (e *FarmEvent) IsUpcoming(now time.Time) bool {
	return e.Status == EventStatusScheduled && e.EndsAt.After(now)
}
