package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/doctors-portal/internal/models"
)

type SaveUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"required,email"`
}

// IssueJWT hands out a session token for a registered email. Unknown
// emails get an empty token with status 200 so the client can tell
// "not signed up" from a server failure.
func (h *Handler) IssueJWT(c *gin.Context) {
	token, err := h.Users.IssueToken(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// SaveUser records a user on sign-in. Calling it again for the same email
// refreshes the name and keeps the role.
func (h *Handler) SaveUser(c *gin.Context) {
	var req SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.Users.Register(c.Request.Context(), models.User{Name: req.Name, Email: req.Email})
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"acknowledged": true, "created": created})
}

func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) CheckAdmin(c *gin.Context) {
	isAdmin, err := h.Users.IsAdmin(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAdmin": isAdmin})
}

// MakeAdmin promotes the user with the given id. Admin only.
func (h *Handler) MakeAdmin(c *gin.Context) {
	modified, err := h.Users.Promote(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true, "modified": modified})
}
