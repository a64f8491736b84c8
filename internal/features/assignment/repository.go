package assignment

import (
	"context"
	"time"

	"go-family/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AssignmentRepository is the assignment store. Insert and Replace enforce
// the no-overlap invariant atomically: the application-level detector is an
// optimistic fast-fail, the store is the serialization point.
type AssignmentRepository interface {
	Insert(ctx context.Context, a *Assignment) error
	Replace(ctx context.Context, a *Assignment) error
	SoftDelete(ctx context.Context, id string, by string) (found bool, err error)
	FindByID(ctx context.Context, id string) (*Assignment, error)
	ListByUser(ctx context.Context, userID string) ([]Assignment, error)
	ListActiveByUserRole(ctx context.Context, userID string, roleID primitive.ObjectID, excludeID *primitive.ObjectID) ([]Assignment, error)
	ListActive(ctx context.Context) ([]Assignment, error)
	EnsureIndexes(ctx context.Context) error
}

type AssignmentRepositoryImpl struct {
	collection *mongo.Collection
	locks      *mongo.Collection
}

func NewAssignmentRepository(mongodb *database.MongodbDB) AssignmentRepository {
	return &AssignmentRepositoryImpl{
		collection: mongodb.DB.Collection("user_role_assignments"),
		locks:      mongodb.DB.Collection("assignment_locks"),
	}
}

// Insert persists a new assignment after re-running the overlap check inside
// a transaction, so two concurrent assigns for the same (user, role) cannot
// both pass the application-level detector and commit.
func (r *AssignmentRepositoryImpl) Insert(ctx context.Context, a *Assignment) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := r.touchLock(sessCtx, a.UserID, a.RoleID); err != nil {
			return nil, err
		}
		if err := r.guardOverlap(sessCtx, a, nil); err != nil {
			return nil, err
		}
		_, err := r.collection.InsertOne(sessCtx, a)
		return nil, err
	})
	return err
}

// Replace overwrites an assignment's mutable fields, re-checking the overlap
// invariant against every other active row of the same (user, role).
func (r *AssignmentRepositoryImpl) Replace(ctx context.Context, a *Assignment) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if a.IsActive {
			if err := r.touchLock(sessCtx, a.UserID, a.RoleID); err != nil {
				return nil, err
			}
			exclude := a.ID
			if err := r.guardOverlap(sessCtx, a, &exclude); err != nil {
				return nil, err
			}
		}

		update := bson.M{
			"$set": bson.M{
				"start_date_gregorian": a.StartGregorian,
				"end_date_gregorian":   a.EndGregorian,
				"start_date_hijri":     a.StartHijri,
				"end_date_hijri":       a.EndHijri,
				"notes":                a.Notes,
				"is_active":            a.IsActive,
				"updated_at":           a.UpdatedAt,
			},
		}
		result, err := r.collection.UpdateOne(sessCtx, bson.M{"_id": a.ID}, update)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	return err
}

// touchLock bumps the per-(user, role) guard document inside the session.
// Mongo transactions run on snapshot reads and only abort on write conflicts
// to the same document, so inserting two distinct assignment rows would never
// conflict on its own. Both racing transactions writing this one guard
// document makes the loser abort with a transient error, and WithTransaction
// re-runs its callback against the winner's committed state, where
// guardOverlap then sees the new row.
func (r *AssignmentRepositoryImpl) touchLock(sessCtx mongo.SessionContext, userID string, roleID primitive.ObjectID) error {
	_, err := r.locks.UpdateOne(sessCtx,
		lockFilter(userID, roleID),
		bson.M{"$inc": bson.M{"revision": 1}},
		options.Update().SetUpsert(true))
	return err
}

// lockFilter identifies the guard document for one (user, role) pair.
func lockFilter(userID string, roleID primitive.ObjectID) bson.M {
	return bson.M{"user_id": userID, "role_id": roleID}
}

// guardOverlap re-runs the pure overlap test against committed state within
// the session.
func (r *AssignmentRepositoryImpl) guardOverlap(sessCtx mongo.SessionContext, a *Assignment, excludeID *primitive.ObjectID) error {
	existing, err := r.ListActiveByUserRole(sessCtx, a.UserID, a.RoleID, excludeID)
	if err != nil {
		return err
	}
	if ids := conflictingIDs(existing, a.Interval()); len(ids) > 0 {
		return &ConflictError{ConflictingIDs: ids}
	}
	return nil
}

// SoftDelete marks an assignment inactive. It reports found=true even when
// the row was already inactive, which makes the operation idempotent.
func (r *AssignmentRepositoryImpl) SoftDelete(ctx context.Context, id string, by string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	update := bson.M{
		"$set": bson.M{
			"is_active":  false,
			"updated_at": time.Now(),
		},
	}
	if by != "" {
		update["$set"].(bson.M)["updated_by"] = by
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (r *AssignmentRepositoryImpl) FindByID(ctx context.Context, id string) (*Assignment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var a Assignment
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date_gregorian", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []Assignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *AssignmentRepositoryImpl) ListActiveByUserRole(ctx context.Context, userID string, roleID primitive.ObjectID, excludeID *primitive.ObjectID) ([]Assignment, error) {
	filter := bson.M{
		"user_id":   userID,
		"role_id":   roleID,
		"is_active": true,
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []Assignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *AssignmentRepositoryImpl) ListActive(ctx context.Context) ([]Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "start_date_gregorian", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []Assignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *AssignmentRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{
				"is_active": true,
			}),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_date_gregorian", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = r.locks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
