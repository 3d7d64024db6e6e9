package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateWishlist(c *gin.Context) {
	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		IsPublic    bool    `json:"isPublic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid payload.")
		return
	}

	wl, err := h.wishlists.Create(c.Request.Context(), currentUserID(c), req.Title, req.Description, req.IsPublic)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, wl)
}

func (h *Handler) ListWishlists(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}

	res, err := h.wishlists.List(c.Request.Context(), currentUserID(c), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetWishlist(c *gin.Context) {
	wl, err := h.wishlists.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wl)
}

func (h *Handler) UpdateWishlist(c *gin.Context) {
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"isPublic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid payload.")
		return
	}

	wl, err := h.wishlists.Update(c.Request.Context(), currentUserID(c), c.Param("id"), models.WishlistPatch{
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wl)
}

func (h *Handler) DeleteWishlist(c *gin.Context) {
	if err := h.wishlists.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
