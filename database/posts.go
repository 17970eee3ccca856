package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chirp/models"
)

type PostRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{coll: db.Posts}
}

func (r *PostRepository) Insert(parentCtx context.Context, post *models.Post) error {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}

	_, err := r.coll.InsertOne(ctx, post)
	return errors.Wrap(err, "inserting post")
}

func (r *PostRepository) FindByID(parentCtx context.Context, id primitive.ObjectID) (*models.Post, error) {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	var post models.Post
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "finding post id=%s", id.Hex())
	}
	return &post, nil
}

// ListViews returns every post, newest first, with authors resolved.
func (r *PostRepository) ListViews(ctx context.Context) ([]models.PostView, error) {
	return r.aggregateViews(ctx, bson.D{})
}

func (r *PostRepository) ListViewsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PostView, error) {
	return r.aggregateViews(ctx, bson.D{{Key: "user", Value: userID}})
}

func (r *PostRepository) FindView(ctx context.Context, id primitive.ObjectID) (*models.PostView, error) {
	views, err := r.aggregateViews(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

// AddLike adds userID to the likes set. Liking twice leaves the post untouched.
func (r *PostRepository) AddLike(ctx context.Context, postID, userID primitive.ObjectID, at time.Time) (*models.Post, error) {
	return r.updateOrFetch(ctx, postID,
		bson.M{"likes": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"likes": userID},
			"$set":      bson.M{"updatedAt": at},
		})
}

// RemoveLike removes userID from the likes set if present.
func (r *PostRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID, at time.Time) (*models.Post, error) {
	return r.updateOrFetch(ctx, postID,
		bson.M{"likes": userID},
		bson.M{
			"$pull": bson.M{"likes": userID},
			"$set":  bson.M{"updatedAt": at},
		})
}

// PushComment appends the comment at the end of the post's comment list.
func (r *PostRepository) PushComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	return r.updateOrFetch(ctx, postID, nil, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": comment.CreatedAt},
	})
}

// DeleteOwned deletes the post only when ownerID owns it, in one operation.
func (r *PostRepository) DeleteOwned(parentCtx context.Context, postID, ownerID primitive.ObjectID) error {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": postID, "user": ownerID}).Err()
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return errors.Wrapf(err, "deleting post id=%s", postID.Hex())
}

// PullComment removes exactly one comment, leaving the others in order.
func (r *PostRepository) PullComment(parentCtx context.Context, postID, commentID primitive.ObjectID, at time.Time) error {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": postID, "comments._id": commentID},
		bson.M{
			"$pull": bson.M{"comments": bson.M{"_id": commentID}},
			"$set":  bson.M{"updatedAt": at},
		})
	if err != nil {
		return errors.Wrapf(err, "pulling comment id=%s from post id=%s", commentID.Hex(), postID.Hex())
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// updateOrFetch applies update when the post also matches cond. When cond
// excludes the post the update is a no-op and the current post is returned.
func (r *PostRepository) updateOrFetch(parentCtx context.Context, postID primitive.ObjectID, cond bson.M, update bson.M) (*models.Post, error) {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	filter := bson.M{"_id": postID}
	for k, v := range cond {
		filter[k] = v
	}

	var post models.Post
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return r.FindByID(parentCtx, postID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "updating post id=%s", postID.Hex())
	}
	return &post, nil
}

func (r *PostRepository) aggregateViews(parentCtx context.Context, match bson.D) ([]models.PostView, error) {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	cursor, err := r.coll.Aggregate(ctx, viewPipeline(match))
	if err != nil {
		return nil, errors.Wrap(err, "aggregating posts")
	}
	defer cursor.Close(ctx)

	views := []models.PostView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, errors.Wrap(err, "decoding posts")
	}
	for i := range views {
		normalizeView(&views[i])
	}
	return views, nil
}

// viewPipeline resolves the owner and every comment author, dropping password hashes.
func viewPipeline(match bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "comments.user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "commentAuthors"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "comments", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$comments", bson.A{}}}}},
				{Key: "as", Value: "c"},
				{Key: "in", Value: bson.D{{Key: "$mergeObjects", Value: bson.A{
					"$$c",
					bson.D{{Key: "author", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{
						bson.D{{Key: "$filter", Value: bson.D{
							{Key: "input", Value: "$commentAuthors"},
							{Key: "as", Value: "a"},
							{Key: "cond", Value: bson.D{{Key: "$eq", Value: bson.A{"$$a._id", "$$c.user"}}}},
						}}},
						0,
					}}}}},
				}}}},
			}}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "commentAuthors", Value: 0},
			{Key: "user.password", Value: 0},
			{Key: "comments.author.password", Value: 0},
		}}},
	}
}

func normalizeView(v *models.PostView) {
	if v.Likes == nil {
		v.Likes = []primitive.ObjectID{}
	}
	if v.Comments == nil {
		v.Comments = []models.CommentView{}
	}
}
