package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/wishlist/internal/logging"
	"github.com/gin-gonic/gin"
)

// NewRouter wires routes and middleware. limiter may be nil, in which case
// the auth endpoints are not throttled.
func NewRouter(h *Handler, verifier AccessVerifier, limiter *RateLimiter, log logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	guard := RequireAccessToken(verifier)

	authGroup := api.Group("/auth", limiter.Handler())
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", guard, h.Logout)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.POST("/reset-password", h.ResetPassword)
	}

	me := api.Group("/users/me", guard)
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)
		me.DELETE("", h.DeleteMe)
		me.POST("/password", h.ChangePassword)
	}

	lists := api.Group("/wishlists", guard)
	{
		lists.GET("", h.ListWishlists)
		lists.POST("", h.CreateWishlist)
		lists.GET("/:id", h.GetWishlist)
		lists.PATCH("/:id", h.UpdateWishlist)
		lists.DELETE("/:id", h.DeleteWishlist)
	}

	wishes := api.Group("/wishes", guard)
	{
		wishes.GET("", h.ListWishes)
		wishes.POST("", h.CreateWish)
		wishes.GET("/:id", h.GetWish)
		wishes.PATCH("/:id", h.UpdateWish)
		wishes.DELETE("/:id", h.DeleteWish)
		wishes.PATCH("/:id/status", h.SetWishStatus)
		wishes.POST("/:id/image", h.CreateWishImage)
		wishes.GET("/:id/image", h.GetWishImage)
	}

	return r
}
