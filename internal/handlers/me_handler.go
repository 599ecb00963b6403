package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counsel-console/internal/httperr"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

// GetMe returns the directory entry of the caller. The role in the token
// wins over the stored one.
func (h *MeHandler) GetMe(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).First(&user, a.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		httperr.NotFound(c, "user_not_found", "user not found")
		return
	case err != nil:
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  a.Role,
		},
	})
}
