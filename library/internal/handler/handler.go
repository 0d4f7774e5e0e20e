package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/pkg/auth"
	md "github.com/Astemirdum/bookshelf/pkg/middleware"
	"github.com/Astemirdum/bookshelf/pkg/validate"
	_ "github.com/Astemirdum/bookshelf/swagger"
)

type Handler struct {
	librarySvc LibraryService
	issuer     *auth.Issuer
	log        *zap.Logger
}

func New(librarySvc LibraryService, issuer *auth.Issuer, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		issuer:     issuer,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/register", h.Register)
	api.POST("/authorize", h.Authorize)

	api.GET("/books", h.GetBooks)
	api.GET("/books/:id", h.GetBook)
	api.GET("/books/:id/reviews", h.GetBookReviews)
	api.GET("/genres", h.GetGenres)
	api.GET("/genres/:id", h.GetGenre)

	user := api.Group("", md.JwtAuthentication(h.issuer))

	user.GET("/me", h.GetProfile)
	user.PATCH("/me", h.UpdateProfile)
	user.GET("/me/stats", h.GetUserStats)

	user.POST("/borrowings", h.CreateBorrowing)
	user.GET("/borrowings", h.GetBorrowings)
	user.GET("/borrowings/history", h.GetBorrowingHistory)
	user.GET("/borrowings/:id", h.GetBorrowing)
	user.POST("/borrowings/:id/return", h.ReturnBorrowing)

	user.GET("/wishlist", h.GetWishlist)
	user.POST("/wishlist", h.AddToWishlist)
	user.GET("/wishlist/:bookId", h.IsWishlisted)
	user.DELETE("/wishlist/:bookId", h.RemoveFromWishlist)

	user.POST("/reviews", h.CreateReview)
	user.PUT("/reviews/:id", h.UpdateReview)
	user.DELETE("/reviews/:id", h.DeleteReview)

	admin := user.Group("/admin", md.RequireAdmin)

	admin.POST("/books", h.CreateBook)
	admin.PUT("/books/:id", h.UpdateBook)
	admin.DELETE("/books/:id", h.DeleteBook)

	admin.POST("/genres", h.CreateGenre)
	admin.PUT("/genres/:id", h.UpdateGenre)
	admin.DELETE("/genres/:id", h.DeleteGenre)

	admin.GET("/borrowings", h.GetAllBorrowings)
	admin.GET("/borrowings/overdue", h.GetOverdueBorrowings)
	admin.PATCH("/borrowings/:id", h.UpdateBorrowingStatus)
	admin.DELETE("/borrowings/:id", h.DeleteBorrowing)

	admin.GET("/reviews", h.GetAllReviews)
	admin.GET("/stats", h.GetStats)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
