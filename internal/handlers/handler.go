package handlers

import (
	"net/http"

	"banking_portal/internal/logger"
	"banking_portal/internal/metrics"
	"banking_portal/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	defaultCookieName = "bank_session"
	defaultCurrency   = "Ksh"
)

// Options carries the HTTP-facing settings taken from config.
type Options struct {
	CookieName   string
	SecureCookie bool
	Currency     string
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.Currency == "" {
		opts.Currency = defaultCurrency
	}
	return &Handler{services: services, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())
	router.SetHTMLTemplate(loadTemplates())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", h.health)

	h.registerPageRoutes(router)
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerPageRoutes(r *gin.Engine) {
	pages := r.Group("/", h.sessionMiddleware)
	{
		pages.GET("/", h.home)
		pages.GET("/signup", h.signupPage)
		pages.POST("/signup", h.signup)
		pages.GET("/login", h.loginPage)
		pages.POST("/login", h.login)
	}

	private := pages.Group("/", h.requireLogin)
	{
		private.GET("/logout", h.logout)
		private.GET("/account", h.account)
		private.GET("/deposit", h.depositPage)
		private.POST("/deposit", h.deposit)
		private.GET("/withdraw", h.withdrawPage)
		private.POST("/withdraw", h.withdraw)
		private.GET("/history", h.historyPage)
	}

	// Live balance of the logged-in session.
	r.GET("/ws/balance", h.sessionMiddleware, h.wsBalance)
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/sign-up", h.apiSignUp)
		auth.POST("/sign-in", h.apiSignIn)
	}

	account := r.Group("/api/v1/account", h.bearerMiddleware)
	{
		account.GET("", h.apiAccount)
		account.POST("/deposit", h.apiDeposit)
		account.POST("/withdraw", h.apiWithdraw)
		account.GET("/entries", h.apiEntries)
	}
}

const statusOK = "ok"

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
