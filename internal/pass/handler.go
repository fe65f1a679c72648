package pass

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// ListUserPasses godoc
// @Summary      List user passes
// @Description  Returns all class passes of the given user, newest first.
// @Tags         passes
// @Produce      json
// @Param        userID  path      int  true  "User ID"
// @Success      200     {array}   UserPurchase
// @Failure      400     {object}  gin.H
// @Failure      500     {object}  gin.H
// @Router       /users/{userID}/passes [get]
func (h *Handler) ListUserPasses(c *gin.Context) {
	userIDStr := c.Param("userID")
	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	passes, err := h.repo.GetUserPasses(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch passes"})
		return
	}

	c.JSON(http.StatusOK, passes)
}
