package domain

import (
	"time"

	"github.com/google/uuid"
)

type SharingMode string

const (
	SharingExclusive SharingMode = "exclusive"
	SharingShared    SharingMode = "shared"
)

// SharingFor tags a capacity: one seat is exclusive, more than one seat is
// shareable up to the capacity.
func SharingFor(capacity int) SharingMode {
	if capacity > 1 {
		return SharingShared
	}
	return SharingExclusive
}

// CanShareSlot reports whether a proposed booking may overlap an existing one.
// Only two shared sessions of the same service coexist; seat counting is left
// to the caller.
func CanShareSlot(proposed, existing ServiceSnapshot) bool {
	if SharingFor(proposed.Capacity) != SharingShared || SharingFor(existing.Capacity) != SharingShared {
		return false
	}
	return proposed.ID != uuid.Nil && proposed.ID == existing.ID
}

// Overlaps is the half-open interval test: touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
