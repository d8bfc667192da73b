package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts authentication endpoints under /auth.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/sign-up", handler.signUp)
		authGroup.POST("/sign-in", handler.signIn)
	}
}

type httpHandler struct {
	service *Service
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *httpHandler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email must be valid and password at least 8 characters"})
		return
	}

	token, err := h.service.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "User with provided email already exists. Please try a different one."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user account. Please try again later."})
		return
	}

	c.JSON(http.StatusCreated, tokenResponse{AccessToken: token})
}

func (h *httpHandler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, err := h.service.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials. Please try again."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate. Please try again later."})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: token})
}
