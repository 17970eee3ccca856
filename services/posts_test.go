package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chirp/apperror"
)

func TestCreatePost(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	author := env.signup(ctx, t)

	post, err := env.postSv.Create(ctx, "hello", author.ID)
	require.NoError(t, err)
	assert.False(t, post.ID.IsZero())
	assert.Equal(t, author.ID, post.UserID)
	assert.Equal(t, "hello", post.Content)
	assert.Empty(t, post.Likes)
	assert.NotNil(t, post.Likes)
	assert.Empty(t, post.Comments)
	assert.Equal(t, env.clock.NowUtc(), post.CreatedAt)
}

func TestListAllResolvesOwnersNewestFirst(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	a := env.signup(ctx, t)
	b := env.signup(ctx, t)

	first, err := env.postSv.Create(ctx, "first", a.ID)
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	second, err := env.postSv.Create(ctx, "second", b.ID)
	require.NoError(t, err)

	views, err := env.postSv.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].ID)
	assert.Equal(t, first.ID, views[1].ID)
	require.NotNil(t, views[0].User)
	assert.Equal(t, b.FullName, views[0].User.FullName)
	assert.Empty(t, views[0].User.PasswordHash)
	assert.Equal(t, a.Email, views[1].User.Email)
}

func TestListByUser(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	a := env.signup(ctx, t)
	b := env.signup(ctx, t)

	_, err := env.postSv.Create(ctx, "mine", a.ID)
	require.NoError(t, err)
	_, err = env.postSv.Create(ctx, "theirs", b.ID)
	require.NoError(t, err)

	views, err := env.postSv.ListByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "mine", views[0].Content)
	assert.Equal(t, a.ID, views[0].User.ID)

	none, err := env.postSv.ListByUser(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetByIDResolvesCommentAuthors(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	owner := env.signup(ctx, t)
	commenter := env.signup(ctx, t)

	post, err := env.postSv.Create(ctx, "hello", owner.ID)
	require.NoError(t, err)
	_, err = env.postSv.Comment(ctx, post.ID, commenter.ID, "nice!")
	require.NoError(t, err)

	view, err := env.postSv.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, view.User.ID)
	require.Len(t, view.Comments, 1)
	require.NotNil(t, view.Comments[0].User)
	assert.Equal(t, commenter.FullName, view.Comments[0].User.FullName)
}

func TestGetByIDNotFound(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()

	_, err := env.postSv.GetByID(ctx, primitive.NewObjectID())
	appErr := requireKind(t, err, apperror.KindNotFound)
	assert.Equal(t, "Post not found.", appErr.Message)
}

func TestLikeIsIdempotent(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	owner := env.signup(ctx, t)
	fan := env.signup(ctx, t)
	post, err := env.postSv.Create(ctx, "like me", owner.ID)
	require.NoError(t, err)

	liked, err := env.postSv.Like(ctx, post.ID, fan.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, contains(liked.Likes, fan.ID))

	liked, err = env.postSv.Like(ctx, post.ID, fan.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, contains(liked.Likes, fan.ID))
	assert.Len(t, liked.Likes, 1)

	// owners may like their own posts
	liked, err = env.postSv.Like(ctx, post.ID, owner.ID, true)
	require.NoError(t, err)
	assert.Len(t, liked.Likes, 2)
}

func TestUnlikeIsIdempotent(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	owner := env.signup(ctx, t)
	fan := env.signup(ctx, t)
	post, err := env.postSv.Create(ctx, "like me", owner.ID)
	require.NoError(t, err)

	unliked, err := env.postSv.Like(ctx, post.ID, fan.ID, false)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)

	_, err = env.postSv.Like(ctx, post.ID, fan.ID, true)
	require.NoError(t, err)
	unliked, err = env.postSv.Like(ctx, post.ID, fan.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, contains(unliked.Likes, fan.ID))

	unliked, err = env.postSv.Like(ctx, post.ID, fan.ID, false)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
}

func TestLikeMissingPost(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	fan := env.signup(ctx, t)

	_, err := env.postSv.Like(ctx, primitive.NewObjectID(), fan.ID, true)
	requireKind(t, err, apperror.KindNotFound)
	_, err = env.postSv.Like(ctx, primitive.NewObjectID(), fan.ID, false)
	requireKind(t, err, apperror.KindNotFound)
}

func TestCommentAppendsInOrder(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	owner := env.signup(ctx, t)
	other := env.signup(ctx, t)
	post, err := env.postSv.Create(ctx, "talk to me", owner.ID)
	require.NoError(t, err)

	_, err = env.postSv.Comment(ctx, post.ID, other.ID, "one")
	require.NoError(t, err)
	_, err = env.postSv.Comment(ctx, post.ID, owner.ID, "two")
	require.NoError(t, err)
	updated, err := env.postSv.Comment(ctx, post.ID, other.ID, "three")
	require.NoError(t, err)

	require.Len(t, updated.Comments, 3)
	assert.Equal(t, "one", updated.Comments[0].Content)
	assert.Equal(t, "two", updated.Comments[1].Content)
	assert.Equal(t, owner.ID, updated.Comments[1].UserID)
	assert.Equal(t, "three", updated.Comments[2].Content)
	assert.NotEqual(t, updated.Comments[0].ID, updated.Comments[2].ID)
}

func TestCommentMissingPost(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	user := env.signup(ctx, t)

	_, err := env.postSv.Comment(ctx, primitive.NewObjectID(), user.ID, "hello?")
	requireKind(t, err, apperror.KindNotFound)
}

func TestDeleteOnlyByOwner(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	owner := env.signup(ctx, t)
	other := env.signup(ctx, t)
	post, err := env.postSv.Create(ctx, "mine", owner.ID)
	require.NoError(t, err)

	err = env.postSv.Delete(ctx, post.ID, other.ID)
	notOwner := requireKind(t, err, apperror.KindNotFound)

	view, err := env.postSv.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", view.Content)

	err = env.postSv.Delete(ctx, primitive.NewObjectID(), owner.ID)
	missing := requireKind(t, err, apperror.KindNotFound)
	assert.Equal(t, missing.Message, notOwner.Message)

	require.NoError(t, env.postSv.Delete(ctx, post.ID, owner.ID))
	_, err = env.postSv.GetByID(ctx, post.ID)
	requireKind(t, err, apperror.KindNotFound)
}

func TestDeleteCommentPermissions(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	owner := env.signup(ctx, t)
	author := env.signup(ctx, t)
	stranger := env.signup(ctx, t)

	post, err := env.postSv.Create(ctx, "hello", owner.ID)
	require.NoError(t, err)
	withComments, err := env.postSv.Comment(ctx, post.ID, author.ID, "by author")
	require.NoError(t, err)
	withComments, err = env.postSv.Comment(ctx, post.ID, author.ID, "also by author")
	require.NoError(t, err)
	first, second := withComments.Comments[0].ID, withComments.Comments[1].ID

	err = env.postSv.DeleteComment(ctx, post.ID, first, stranger.ID)
	denied := requireKind(t, err, apperror.KindForbidden)
	assert.Equal(t, "Unauthorized to delete this comment", denied.Message)

	// the post owner may delete someone else's comment
	require.NoError(t, env.postSv.DeleteComment(ctx, post.ID, first, owner.ID))
	// and the comment author may delete their own on someone else's post
	require.NoError(t, env.postSv.DeleteComment(ctx, post.ID, second, author.ID))

	view, err := env.postSv.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Comments)
}

func TestDeleteCommentPreservesOrder(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	owner := env.signup(ctx, t)
	post, err := env.postSv.Create(ctx, "hello", owner.ID)
	require.NoError(t, err)

	var updated = post
	for _, c := range []string{"a", "b", "c", "d"} {
		updated, err = env.postSv.Comment(ctx, post.ID, owner.ID, c)
		require.NoError(t, err)
	}

	require.NoError(t, env.postSv.DeleteComment(ctx, post.ID, updated.Comments[1].ID, owner.ID))

	view, err := env.postSv.GetByID(ctx, post.ID)
	require.NoError(t, err)
	var contents []string
	for _, c := range view.Comments {
		contents = append(contents, c.Content)
	}
	assert.Equal(t, []string{"a", "c", "d"}, contents)
}

func TestDeleteCommentNotFound(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	owner := env.signup(ctx, t)
	post, err := env.postSv.Create(ctx, "hello", owner.ID)
	require.NoError(t, err)

	err = env.postSv.DeleteComment(ctx, primitive.NewObjectID(), primitive.NewObjectID(), owner.ID)
	appErr := requireKind(t, err, apperror.KindNotFound)
	assert.Equal(t, "Post not found", appErr.Message)

	err = env.postSv.DeleteComment(ctx, post.ID, primitive.NewObjectID(), owner.ID)
	appErr = requireKind(t, err, apperror.KindNotFound)
	assert.Equal(t, "Comment not found", appErr.Message)
}

func TestHelloNiceScenario(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	env := newTestEnv()
	a := env.signup(ctx, t)
	b := env.signup(ctx, t)

	post, err := env.postSv.Create(ctx, "hello", a.ID)
	require.NoError(t, err)

	commented, err := env.postSv.Comment(ctx, post.ID, b.ID, "nice!")
	require.NoError(t, err)
	require.Len(t, commented.Comments, 1)
	assert.Equal(t, b.ID, commented.Comments[0].UserID)

	require.NoError(t, env.postSv.DeleteComment(ctx, post.ID, commented.Comments[0].ID, a.ID))

	stored, err := env.posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
}
