package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chirp/models"
)

// hidePassword keeps the hash out of every read except the login lookup.
var hidePassword = bson.D{{Key: "password", Value: 0}}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{coll: db.Users}
}

// Create inserts the user and sets its ID. A taken email yields ErrDuplicateKey.
func (r *UserRepository) Create(parentCtx context.Context, user *models.User) error {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	_, err := r.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return errors.Wrapf(err, "inserting user email=%q", user.Email)
}

func (r *UserRepository) ExistsByEmail(parentCtx context.Context, email string) (bool, error) {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	count, err := r.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "counting users email=%q", email)
	}
	return count > 0, nil
}

// FindByEmailWithPassword is the only read path that loads the password hash.
func (r *UserRepository) FindByEmailWithPassword(parentCtx context.Context, email string) (*models.User, error) {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "finding user email=%q", email)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(parentCtx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(hidePassword)).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "finding user id=%s", id.Hex())
	}
	return &user, nil
}
