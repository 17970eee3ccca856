package services

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chirp/apperror"
	"chirp/database"
	"chirp/models"
	"chirp/util"
)

const (
	msgPostNotFound        = "Post not found."
	msgPostNotOwned        = "Post not found or unauthorized"
	msgCommentNotFound     = "Comment not found"
	msgCommentDeleteDenied = "Unauthorized to delete this comment"
)

type PostService struct {
	posts PostStore
	clock util.Clock
}

func NewPostService(posts PostStore, clock util.Clock) *PostService {
	return &PostService{posts: posts, clock: clock}
}

func (s *PostService) Create(ctx context.Context, content string, authorID primitive.ObjectID) (*models.Post, error) {
	now := s.clock.NowUtc()
	post := &models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    authorID,
		Content:   content,
		Likes:     []primitive.ObjectID{},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.Insert(ctx, post); err != nil {
		return nil, apperror.Internal(err)
	}
	return post, nil
}

// ListAll is unbounded; there is no pagination.
func (s *PostService) ListAll(ctx context.Context) ([]models.PostView, error) {
	views, err := s.posts.ListViews(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return views, nil
}

func (s *PostService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PostView, error) {
	views, err := s.posts.ListViewsByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return views, nil
}

func (s *PostService) GetByID(ctx context.Context, postID primitive.ObjectID) (*models.PostView, error) {
	view, err := s.posts.FindView(ctx, postID)
	if err != nil {
		return nil, storeError(err, msgPostNotFound)
	}
	return view, nil
}

// Like adds or removes userID from the post's likes. Both directions are idempotent.
func (s *PostService) Like(ctx context.Context, postID, userID primitive.ObjectID, liked bool) (*models.Post, error) {
	var (
		post *models.Post
		err  error
	)
	if liked {
		post, err = s.posts.AddLike(ctx, postID, userID, s.clock.NowUtc())
	} else {
		post, err = s.posts.RemoveLike(ctx, postID, userID, s.clock.NowUtc())
	}
	if err != nil {
		return nil, storeError(err, msgPostNotFound)
	}
	return post, nil
}

// Comment appends a new comment; any authenticated user may comment.
func (s *PostService) Comment(ctx context.Context, postID, userID primitive.ObjectID, content string) (*models.Post, error) {
	now := s.clock.NowUtc()
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	post, err := s.posts.PushComment(ctx, postID, comment)
	if err != nil {
		return nil, storeError(err, msgPostNotFound)
	}
	return post, nil
}

// Delete removes the post when requesterID owns it. A missing post and a post
// owned by someone else are reported the same way.
func (s *PostService) Delete(ctx context.Context, postID, requesterID primitive.ObjectID) error {
	if err := s.posts.DeleteOwned(ctx, postID, requesterID); err != nil {
		return storeError(err, msgPostNotOwned)
	}
	return nil
}

// DeleteComment lets either the post owner or the comment author remove a comment.
func (s *PostService) DeleteComment(ctx context.Context, postID, commentID, requesterID primitive.ObjectID) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return storeError(err, "Post not found")
	}

	comment := post.FindComment(commentID)
	if comment == nil {
		return apperror.NotFound(msgCommentNotFound)
	}

	if post.UserID != requesterID && comment.UserID != requesterID {
		return apperror.Forbidden(msgCommentDeleteDenied)
	}

	if err := s.posts.PullComment(ctx, postID, commentID, s.clock.NowUtc()); err != nil {
		return storeError(err, msgCommentNotFound)
	}
	return nil
}

func storeError(err error, notFound string) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperror.NotFound(notFound)
	}
	return apperror.Internal(err)
}
