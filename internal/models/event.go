// Package models defines the core domain entities for quakelens.
// These models represent earthquake events, the time windows they are
// partitioned into, and the filter and selection state shared by the views.
//
// Terminology:
//   - Event: one earthquake record. Identity is the EventID assigned at
//     ingestion, never the field values.
//   - Window: a contiguous time slice of the dataset, one navigation step.
//   - Visible set: the events of a window that survive the filter chain.
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// EventID is the stable identity of an event, assigned once at ingestion.
// Two events with identical fields are still distinct events.
type EventID int

// Event represents a single normalized earthquake record.
type Event struct {
	ID         EventID   `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Magnitude  float64   `json:"mag"`
	Depth      float64   `json:"depth"` // km, clamped to >= 0
	OccurredAt time.Time `json:"time"`
	Place      string    `json:"place,omitempty"`
}

// Validate checks that all event fields are valid.
func (e *Event) Validate() error {
	if e.ID < 0 {
		return errors.New("event ID must not be negative")
	}
	if math.IsNaN(e.Latitude) || e.Latitude < -90 || e.Latitude > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if math.IsNaN(e.Longitude) || e.Longitude < -180 || e.Longitude > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	if math.IsNaN(e.Magnitude) {
		return errors.New("magnitude must be a number")
	}
	if math.IsNaN(e.Depth) || e.Depth < 0 {
		return errors.New("depth must not be negative")
	}
	if e.OccurredAt.IsZero() {
		return errors.New("occurred at must be set")
	}
	return nil
}

// Normalize clamps depth to be non-negative and truncates the timestamp to
// millisecond precision.
func (e *Event) Normalize() {
	if e.Depth < 0 {
		e.Depth = 0
	}
	e.OccurredAt = e.OccurredAt.Truncate(time.Millisecond)
}

// Attribute selects which event field drives colour, radius and binning.
// It is a rendering parameter, never a membership predicate.
type Attribute string

const (
	AttributeMagnitude Attribute = "mag"
	AttributeDepth     Attribute = "depth"
)

// Attributes lists the selectable attributes in UI order.
var Attributes = []Attribute{AttributeMagnitude, AttributeDepth}

// ParseAttribute converts a config or UI string into an Attribute.
func ParseAttribute(s string) (Attribute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mag", "magnitude":
		return AttributeMagnitude, nil
	case "depth":
		return AttributeDepth, nil
	}
	return "", fmt.Errorf("unknown attribute %q", s)
}

// Value returns the attribute's value for an event.
func (a Attribute) Value(e Event) float64 {
	if a == AttributeDepth {
		return e.Depth
	}
	return e.Magnitude
}

// Label returns the human-readable axis label.
func (a Attribute) Label() string {
	switch a {
	case AttributeMagnitude:
		return "Magnitude"
	case AttributeDepth:
		return "Depth"
	}
	return "Value"
}

// Next cycles to the following attribute.
func (a Attribute) Next() Attribute {
	for i, attr := range Attributes {
		if attr == a {
			return Attributes[(i+1)%len(Attributes)]
		}
	}
	return AttributeMagnitude
}

// IDs returns the identities of the given events in order.
func IDs(events []Event) []EventID {
	ids := make([]EventID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
