package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chirp/services"
	"chirp/validation"
)

const tokenHeader = "X-Token"

type SignupRequest struct {
	FullName string `json:"fullName" binding:"required" label:"Full name"`
	Email    string `json:"email" binding:"required,email" label:"Email"`
	Password string `json:"password" binding:"required,min=6" label:"Password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" label:"Email"`
	Password string `json:"password" binding:"required,min=6" label:"Password"`
}

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	_, err := h.users.Signup(c.Request.Context(), services.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User signed up successfully."})
}

// Login returns the token in the X-Token header, exposed to browsers.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Access-Control-Expose-Headers", tokenHeader)
	c.Header(tokenHeader, token)
	c.JSON(http.StatusOK, gin.H{"message": "User logged in successfully."})
}
