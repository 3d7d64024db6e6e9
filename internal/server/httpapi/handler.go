// Package httpapi exposes the wishlist services over a JSON REST API.
package httpapi

import (
	"strconv"

	"github.com/dmitrijs2005/wishlist/internal/logging"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/dmitrijs2005/wishlist/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Services groups the collaborators the handlers call into.
type Services struct {
	Auth      *services.AuthService
	Users     *services.UserService
	Wishlists *services.WishlistService
	Wishes    *services.WishService
	Images    *services.ImageService
}

type Handler struct {
	auth      *services.AuthService
	users     *services.UserService
	wishlists *services.WishlistService
	wishes    *services.WishService
	images    *services.ImageService
	log       logging.Logger
}

func NewHandler(s Services, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop{}
	}
	return &Handler{
		auth:      s.Auth,
		users:     s.Users,
		wishlists: s.Wishlists,
		wishes:    s.Wishes,
		images:    s.Images,
		log:       log.With("module", "httpapi"),
	}
}

// pageQuery reads ?page and ?limit. Missing values fall back to defaults;
// malformed ones are rejected.
func pageQuery(c *gin.Context) (models.PageRequest, bool) {
	var p models.PageRequest
	for name, dst := range map[string]*int{"page": &p.Page, "limit": &p.Limit} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, name+" must be a positive integer.")
			return p, false
		}
		*dst = n
	}
	return p, true
}
