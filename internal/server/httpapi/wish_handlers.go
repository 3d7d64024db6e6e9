package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/dmitrijs2005/wishlist/internal/server/services"
	"github.com/gin-gonic/gin"
)

type wishRequest struct {
	WishlistID  *string            `json:"wishlistId"`
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	URL         *string            `json:"url"`
	PriceCents  *int64             `json:"priceCents"`
	Priority    *int               `json:"priority"`
	Status      *models.WishStatus `json:"status"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *Handler) CreateWish(c *gin.Context) {
	var req wishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid payload.")
		return
	}
	if req.WishlistID == nil || *req.WishlistID == "" {
		badRequest(c, "wishlistId is required.")
		return
	}

	w, err := h.wishes.Create(c.Request.Context(), currentUserID(c), services.NewWish{
		WishlistID:  *req.WishlistID,
		Title:       deref(req.Title),
		Description: req.Description,
		URL:         req.URL,
		PriceCents:  req.PriceCents,
		Priority:    deref(req.Priority),
		Status:      deref(req.Status),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *Handler) ListWishes(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	filter := models.WishFilter{
		WishlistID: c.Query("wishlistId"),
		Status:     models.WishStatus(c.Query("status")),
	}

	res, err := h.wishes.List(c.Request.Context(), currentUserID(c), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetWish(c *gin.Context) {
	w, err := h.wishes.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) UpdateWish(c *gin.Context) {
	var req wishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid payload.")
		return
	}

	w, err := h.wishes.Update(c.Request.Context(), currentUserID(c), c.Param("id"), models.WishPatch{
		WishlistID:  req.WishlistID,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		PriceCents:  req.PriceCents,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) SetWishStatus(c *gin.Context) {
	var req struct {
		Status models.WishStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid payload.")
		return
	}

	w, err := h.wishes.SetStatus(c.Request.Context(), currentUserID(c), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) DeleteWish(c *gin.Context) {
	if err := h.wishes.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateWishImage(c *gin.Context) {
	up, err := h.images.ImageUploadURL(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, up)
}

func (h *Handler) GetWishImage(c *gin.Context) {
	url, err := h.images.ImageURL(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
