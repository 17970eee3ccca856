// Package storetest provides in-memory user and post stores with the same
// semantics as the MongoDB repositories, for tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chirp/database"
	"chirp/models"
)

type Users struct {
	mu    sync.RWMutex
	byID  map[primitive.ObjectID]models.User
	email map[string]primitive.ObjectID
}

func NewUsers() *Users {
	return &Users{
		byID:  make(map[primitive.ObjectID]models.User),
		email: make(map[string]primitive.ObjectID),
	}
}

func (u *Users) Create(_ context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, taken := u.email[user.Email]; taken {
		return database.ErrDuplicateKey
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u.byID[user.ID] = *user
	u.email[user.Email] = user.ID
	return nil
}

func (u *Users) ExistsByEmail(_ context.Context, email string) (bool, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	_, ok := u.email[email]
	return ok, nil
}

func (u *Users) FindByEmailWithPassword(_ context.Context, email string) (*models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	id, ok := u.email[email]
	if !ok {
		return nil, database.ErrNotFound
	}
	user := u.byID[id]
	return &user, nil
}

func (u *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := u.get(id)
	if !ok {
		return nil, database.ErrNotFound
	}
	return &user, nil
}

// Delete removes a user, simulating an account that disappeared after a token was issued.
func (u *Users) Delete(id primitive.ObjectID) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if user, ok := u.byID[id]; ok {
		delete(u.email, user.Email)
		delete(u.byID, id)
	}
}

// get returns the public projection of the user.
func (u *Users) get(id primitive.ObjectID) (models.User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.byID[id]
	return user.Public(), ok
}

type Posts struct {
	mu    sync.Mutex
	users *Users
	posts map[primitive.ObjectID]models.Post
}

func NewPosts(users *Users) *Posts {
	return &Posts{
		users: users,
		posts: make(map[primitive.ObjectID]models.Post),
	}
}

func (p *Posts) Insert(_ context.Context, post *models.Post) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	p.posts[post.ID] = clonePost(*post)
	return nil
}

func (p *Posts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	post, ok := p.posts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := clonePost(post)
	return &out, nil
}

func (p *Posts) ListViews(_ context.Context) ([]models.PostView, error) {
	return p.views(func(models.Post) bool { return true }), nil
}

func (p *Posts) ListViewsByUser(_ context.Context, userID primitive.ObjectID) ([]models.PostView, error) {
	return p.views(func(post models.Post) bool { return post.UserID == userID }), nil
}

func (p *Posts) FindView(_ context.Context, id primitive.ObjectID) (*models.PostView, error) {
	views := p.views(func(post models.Post) bool { return post.ID == id })
	if len(views) == 0 {
		return nil, database.ErrNotFound
	}
	return &views[0], nil
}

func (p *Posts) AddLike(_ context.Context, postID, userID primitive.ObjectID, at time.Time) (*models.Post, error) {
	return p.update(postID, func(post *models.Post) {
		for _, id := range post.Likes {
			if id == userID {
				return
			}
		}
		post.Likes = append(post.Likes, userID)
		post.UpdatedAt = at
	})
}

func (p *Posts) RemoveLike(_ context.Context, postID, userID primitive.ObjectID, at time.Time) (*models.Post, error) {
	return p.update(postID, func(post *models.Post) {
		kept := post.Likes[:0]
		for _, id := range post.Likes {
			if id != userID {
				kept = append(kept, id)
			}
		}
		if len(kept) != len(post.Likes) {
			post.UpdatedAt = at
		}
		post.Likes = kept
	})
}

func (p *Posts) PushComment(_ context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	return p.update(postID, func(post *models.Post) {
		post.Comments = append(post.Comments, comment)
		post.UpdatedAt = comment.CreatedAt
	})
}

func (p *Posts) DeleteOwned(_ context.Context, postID, ownerID primitive.ObjectID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	post, ok := p.posts[postID]
	if !ok || post.UserID != ownerID {
		return database.ErrNotFound
	}
	delete(p.posts, postID)
	return nil
}

func (p *Posts) PullComment(_ context.Context, postID, commentID primitive.ObjectID, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	post, ok := p.posts[postID]
	if !ok || post.FindComment(commentID) == nil {
		return database.ErrNotFound
	}

	kept := make([]models.Comment, 0, len(post.Comments))
	for _, c := range post.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	post.Comments = kept
	post.UpdatedAt = at
	p.posts[postID] = post
	return nil
}

func (p *Posts) update(postID primitive.ObjectID, apply func(*models.Post)) (*models.Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.posts[postID]
	if !ok {
		return nil, database.ErrNotFound
	}
	post := clonePost(stored)
	apply(&post)
	p.posts[postID] = post

	out := clonePost(post)
	return &out, nil
}

// views mirrors the repository aggregation: newest first, owner and comment authors resolved.
func (p *Posts) views(keep func(models.Post) bool) []models.PostView {
	p.mu.Lock()
	matched := make([]models.Post, 0, len(p.posts))
	for _, post := range p.posts {
		if keep(post) {
			matched = append(matched, clonePost(post))
		}
	}
	p.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	views := make([]models.PostView, 0, len(matched))
	for _, post := range matched {
		view := models.PostView{
			ID:        post.ID,
			Content:   post.Content,
			Likes:     post.Likes,
			Comments:  make([]models.CommentView, 0, len(post.Comments)),
			CreatedAt: post.CreatedAt,
			UpdatedAt: post.UpdatedAt,
		}
		if owner, ok := p.users.get(post.UserID); ok {
			view.User = &owner
		}
		for _, c := range post.Comments {
			cv := models.CommentView{
				ID:        c.ID,
				Content:   c.Content,
				CreatedAt: c.CreatedAt,
				UpdatedAt: c.UpdatedAt,
			}
			if author, ok := p.users.get(c.UserID); ok {
				cv.User = &author
			}
			view.Comments = append(view.Comments, cv)
		}
		views = append(views, view)
	}
	return views
}

func clonePost(post models.Post) models.Post {
	post.Likes = append([]primitive.ObjectID{}, post.Likes...)
	post.Comments = append([]models.Comment{}, post.Comments...)
	return post
}
