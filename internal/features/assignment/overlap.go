package assignment

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interval is a validity window on Gregorian dates. A nil End means
// open-ended. Windows are half-open: [Start, End).
type Interval struct {
	Start time.Time
	End   *time.Time
}

// Overlaps tests two intervals: [s1,e1) and [s2,e2) overlap iff
// s1 < (e2 or +inf) and s2 < (e1 or +inf). Two open-ended windows always
// overlap.
func (iv Interval) Overlaps(other Interval) bool {
	if other.End != nil && !iv.Start.Before(*other.End) {
		return false
	}
	if iv.End != nil && !other.Start.Before(*iv.End) {
		return false
	}
	return true
}

// OverlapDetector decides whether a candidate interval conflicts with
// existing active assignments of the same user and role. The linear scan
// below is fine at association scale; an interval-tree implementation could
// be swapped in behind the same interface.
type OverlapDetector interface {
	Conflicts(ctx context.Context, userID string, roleID primitive.ObjectID, candidate Interval, excludeID *primitive.ObjectID) ([]string, error)
}

// StoreDetector detects overlaps against the assignment store.
type StoreDetector struct {
	Repo AssignmentRepository
}

func NewOverlapDetector(repo AssignmentRepository) OverlapDetector {
	return &StoreDetector{Repo: repo}
}

// Conflicts returns the ids of active assignments whose intervals intersect
// the candidate. An empty result means no conflict.
func (d *StoreDetector) Conflicts(ctx context.Context, userID string, roleID primitive.ObjectID, candidate Interval, excludeID *primitive.ObjectID) ([]string, error) {
	existing, err := d.Repo.ListActiveByUserRole(ctx, userID, roleID, excludeID)
	if err != nil {
		return nil, err
	}
	return conflictingIDs(existing, candidate), nil
}

// conflictingIDs is the pure core of the detector, shared with the storage
// layer's transactional re-check.
func conflictingIDs(existing []Assignment, candidate Interval) []string {
	var ids []string
	for i := range existing {
		if existing[i].Interval().Overlaps(candidate) {
			ids = append(ids, existing[i].ID.Hex())
		}
	}
	return ids
}
