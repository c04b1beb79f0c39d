// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to a plan or its program links.
const (
	// Plan events
	EventPlanCoursesChanged EventType = "plan.courses_changed"

	// Fulfillment events
	EventFulfillmentsRecomputed EventType = "fulfillment.recomputed"

	// Catalog events
	EventCatalogRefreshed EventType = "catalog.refreshed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a published event.
type EventHandler func(event Event) error

// EventBus distributes domain events to subscribed handlers.
type EventBus interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
	Publish(event Event) error
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// PlanCoursesChangedEvent is emitted when a planned course is added, moved,
// or removed; the fulfillment set becomes stale and a recompute follows.
type PlanCoursesChangedEvent struct {
	BaseEvent
	PlanID          string `json:"plan_id"`
	PlannedCourseID string `json:"planned_course_id"`
	Change          string `json:"change"` // added, removed, moved
}

// Payload implements Event interface.
func (e PlanCoursesChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"plan_id":           e.PlanID,
		"planned_course_id": e.PlannedCourseID,
		"change":            e.Change,
	}
}

// NewPlanCoursesChangedEvent creates a new PlanCoursesChangedEvent.
func NewPlanCoursesChangedEvent(planID, plannedCourseID, change string) PlanCoursesChangedEvent {
	return PlanCoursesChangedEvent{
		BaseEvent:       NewBaseEvent(EventPlanCoursesChanged, planID),
		PlanID:          planID,
		PlannedCourseID: plannedCourseID,
		Change:          change,
	}
}

// FulfillmentsRecomputedEvent is emitted after the assigner rebuilds the
// fulfillment set for a plan. Read-side caches key invalidation off it.
type FulfillmentsRecomputedEvent struct {
	BaseEvent
	PlanID         string   `json:"plan_id"`
	PlanProgramIDs []string `json:"plan_program_ids"`
	RecordCount    int      `json:"record_count"`
}

// Payload implements Event interface.
func (e FulfillmentsRecomputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"plan_id":          e.PlanID,
		"plan_program_ids": e.PlanProgramIDs,
		"record_count":     e.RecordCount,
	}
}

// NewFulfillmentsRecomputedEvent creates a new FulfillmentsRecomputedEvent.
func NewFulfillmentsRecomputedEvent(planID string, planProgramIDs []string, recordCount int) FulfillmentsRecomputedEvent {
	return FulfillmentsRecomputedEvent{
		BaseEvent:      NewBaseEvent(EventFulfillmentsRecomputed, planID),
		PlanID:         planID,
		PlanProgramIDs: planProgramIDs,
		RecordCount:    recordCount,
	}
}

// CatalogRefreshedEvent is emitted when the ingestion pipeline has replaced
// catalog data for an academic year; cached filter results become stale.
type CatalogRefreshedEvent struct {
	BaseEvent
	AcademicYearID string `json:"academic_year_id"`
}

// Payload implements Event interface.
func (e CatalogRefreshedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"academic_year_id": e.AcademicYearID,
	}
}

// NewCatalogRefreshedEvent creates a new CatalogRefreshedEvent.
func NewCatalogRefreshedEvent(academicYearID string) CatalogRefreshedEvent {
	return CatalogRefreshedEvent{
		BaseEvent:      NewBaseEvent(EventCatalogRefreshed, academicYearID),
		AcademicYearID: academicYearID,
	}
}
