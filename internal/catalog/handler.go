package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// ListPackages godoc
// @Summary      List packages
// @Description  Returns all purchasable class pass packages.
// @Tags         packages
// @Produce      json
// @Success      200  {array}   Package
// @Failure      500  {object}  gin.H
// @Router       /packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	packages, err := h.repo.GetAllPackages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch packages"})
		return
	}

	c.JSON(http.StatusOK, packages)
}
