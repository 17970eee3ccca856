package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chirp/apperror"
	"chirp/middleware"
	"chirp/models"
	"chirp/services"
	"chirp/validation"
)

type CreatePostRequest struct {
	Content string `json:"content" binding:"min=1,max=280" label:"Content"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"min=1,max=280" label:"Comment"`
}

type LikeRequest struct {
	Liked *bool `json:"liked" binding:"required" label:"Liked"`
}

type PostParams struct {
	PostID string `uri:"postId" binding:"required,objectid"`
}

type CommentParams struct {
	PostID    string `uri:"postId" binding:"required,objectid"`
	CommentID string `uri:"commentId" binding:"required,objectid"`
}

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), req.Content, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetAllPosts(c *gin.Context) {
	posts, err := h.posts.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetMyPosts(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	posts, err := h.posts.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.posts.GetByID(c.Request.Context(), postID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) LikePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req LikeRequest
	var params PostParams
	err := validation.Combine(validation.BindJSON(c, &req), validation.BindURI(c, &params))
	if err != nil {
		_ = c.Error(err)
		return
	}
	postID, ok := parsePostID(c, params.PostID)
	if !ok {
		return
	}

	post, err := h.posts.Like(c.Request.Context(), postID, user.ID, *req.Liked)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) CommentPost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CommentRequest
	var params PostParams
	err := validation.Combine(validation.BindJSON(c, &req), validation.BindURI(c, &params))
	if err != nil {
		_ = c.Error(err)
		return
	}
	postID, ok := parsePostID(c, params.PostID)
	if !ok {
		return
	}

	post, err := h.posts.Comment(c.Request.Context(), postID, user.ID, req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), postID, user.ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var params CommentParams
	if err := validation.BindURI(c, &params); err != nil {
		_ = c.Error(err)
		return
	}
	// both ids were checked by the objectid rule
	postID, _ := primitive.ObjectIDFromHex(params.PostID)
	commentID, _ := primitive.ObjectIDFromHex(params.CommentID)

	if err := h.posts.DeleteComment(c.Request.Context(), postID, commentID, user.ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperror.Unauthenticated("Unauthorized. Missing or invalid token."))
	}
	return user, ok
}

func postIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	var params PostParams
	if err := validation.BindURI(c, &params); err != nil {
		_ = c.Error(err)
		return primitive.NilObjectID, false
	}
	return parsePostID(c, params.PostID)
}

func parsePostID(c *gin.Context, hex string) (primitive.ObjectID, bool) {
	postID, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return primitive.NilObjectID, false
	}
	return postID, true
}
