package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/auth"
	"github.com/relieflabs/go-drms/internal/models"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	u, sess, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetCookie(sessionCookie, sess.Token, maxAge, "/", "", false, true)
	respond(c, http.StatusOK, gin.H{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
		"user":       toUserView(u),
	})
}

func (h *Handler) logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		token, _ = c.Cookie(sessionCookie)
	}
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		fail(c, err)
		return
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	respond(c, http.StatusOK, gin.H{"logged_out": true})
}

func (h *Handler) me(c *gin.Context) {
	respond(c, http.StatusOK, toUserView(currentUser(c)))
}

type createUserRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Name     string   `json:"name" binding:"required"`
	Roles    []string `json:"roles" binding:"required,min=1"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	roles := make([]models.Role, 0, len(req.Roles))
	for _, r := range req.Roles {
		role, ok := models.ParseRole(r)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown role", gin.H{"role": r})
			return
		}
		roles = append(roles, role)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Roles:        roles,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := h.store.AddUser(c.Request.Context(), u); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toUserView(u))
}

func (h *Handler) listUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, err := h.store.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}
	respond(c, http.StatusOK, views)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *Handler) setUserActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.store.SetUserActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": c.Param("id"), "active": *req.Active})
}
