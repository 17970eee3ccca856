// Package services holds the account and post operations, including the
// ownership rules applied to posts and comments.
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chirp/database"
	"chirp/models"
)

// UserStore is satisfied by database.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// PostStore is satisfied by database.PostRepository.
type PostStore interface {
	Insert(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListViews(ctx context.Context) ([]models.PostView, error)
	ListViewsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PostView, error)
	FindView(ctx context.Context, id primitive.ObjectID) (*models.PostView, error)
	AddLike(ctx context.Context, postID, userID primitive.ObjectID, at time.Time) (*models.Post, error)
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID, at time.Time) (*models.Post, error)
	PushComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error)
	DeleteOwned(ctx context.Context, postID, ownerID primitive.ObjectID) error
	PullComment(ctx context.Context, postID, commentID primitive.ObjectID, at time.Time) error
}

var (
	_ UserStore = (*database.UserRepository)(nil)
	_ PostStore = (*database.PostRepository)(nil)
)
