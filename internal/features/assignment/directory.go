package assignment

import (
	"context"

	"go-family/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserDirectory answers whether a user id can receive a role. The engine
// only needs existence; member CRUD lives elsewhere.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// MemberDirectory checks the members collection. Legacy ids imported from
// the old backend are UUID strings, so the lookup is on the stored user id,
// not on Mongo's object id.
type MemberDirectory struct {
	collection *mongo.Collection
}

func NewMemberDirectory(mongodb *database.MongodbDB) UserDirectory {
	return &MemberDirectory{
		collection: mongodb.DB.Collection("members"),
	}
}

func (d *MemberDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	err := d.collection.FindOne(ctx, bson.M{"user_id": userID}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
