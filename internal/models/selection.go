package models

import (
	"slices"
	"time"
)

// NeighborhoodSpan is the half-width of a point selection's time neighborhood.
const NeighborhoodSpan = 24 * time.Hour

// SelectionKind enumerates the mutually exclusive selection modes.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionPoint
	SelectionBin
)

func (k SelectionKind) String() string {
	switch k {
	case SelectionPoint:
		return "point"
	case SelectionBin:
		return "bin"
	}
	return "none"
}

// BinSource records which gesture produced a bin selection.
type BinSource int

const (
	BinSourceHistogram BinSource = iota
	BinSourceSpatialBrush
)

// Selection is the single source of truth for highlighting.
// Exactly one of Point / Members is meaningful, according to Kind.
type Selection struct {
	Kind    SelectionKind
	Point   EventID
	Members []EventID // sorted ascending
	Source  BinSource
}

// NoSelection is the empty selection.
func NoSelection() Selection {
	return Selection{Kind: SelectionNone}
}

// PointSelection selects a single event.
func PointSelection(id EventID) Selection {
	return Selection{Kind: SelectionPoint, Point: id}
}

// BinSelection selects a set of events. Duplicates are removed and members
// sorted so two selections of the same set compare equal.
func BinSelection(ids []EventID, source BinSource) Selection {
	members := slices.Clone(ids)
	slices.Sort(members)
	members = slices.Compact(members)
	if members == nil {
		members = []EventID{}
	}
	return Selection{Kind: SelectionBin, Members: members, Source: source}
}

// IsPoint reports whether s is a point selection of id.
func (s Selection) IsPoint(id EventID) bool {
	return s.Kind == SelectionPoint && s.Point == id
}

// SameMembers reports whether s and other are bin selections of exactly the
// same set made by the same gesture.
func (s Selection) SameMembers(other Selection) bool {
	return s.Kind == SelectionBin && other.Kind == SelectionBin &&
		s.Source == other.Source && slices.Equal(s.Members, other.Members)
}

// Has reports bin membership.
func (s Selection) Has(id EventID) bool {
	if s.Kind != SelectionBin {
		return false
	}
	_, found := slices.BinarySearch(s.Members, id)
	return found
}

// Class is the highlight classification of one event.
type Class int

const (
	// ClassDefault keeps the attribute-derived colour.
	ClassDefault Class = iota
	ClassBefore
	ClassSelected
	ClassAfter
	// ClassMember is outlined under a bin selection.
	ClassMember
	// ClassDimmed has reduced opacity under a bin selection.
	ClassDimmed
)

func (c Class) String() string {
	switch c {
	case ClassBefore:
		return "before"
	case ClassSelected:
		return "selected"
	case ClassAfter:
		return "after"
	case ClassMember:
		return "member"
	case ClassDimmed:
		return "dimmed"
	}
	return "default"
}

// ClassifyNeighbor places t relative to the selected instant t0.
// Both boundaries at exactly ±24h are inside the neighborhood. An event at
// the same instant as the selection (but not the selection itself) counts
// as after.
func ClassifyNeighbor(t0, t time.Time) Class {
	diff := t.Sub(t0)
	switch {
	case diff >= 0 && diff <= NeighborhoodSpan:
		return ClassAfter
	case diff < 0 && -diff <= NeighborhoodSpan:
		return ClassBefore
	}
	return ClassDefault
}

// Highlight is the per-render highlight state handed to the views.
type Highlight struct {
	Selection Selection
	// Classes holds the before/selected/after classification of a point
	// selection, computed over the whole window. Absent ids are ClassDefault.
	Classes map[EventID]Class
}

// Class returns the highlight class of an event.
func (h Highlight) Class(id EventID) Class {
	switch h.Selection.Kind {
	case SelectionPoint:
		if c, ok := h.Classes[id]; ok {
			return c
		}
		return ClassDefault
	case SelectionBin:
		if h.Selection.Has(id) {
			return ClassMember
		}
		return ClassDimmed
	}
	return ClassDefault
}

// Active reports whether any selection is in effect.
func (h Highlight) Active() bool {
	return h.Selection.Kind != SelectionNone
}
