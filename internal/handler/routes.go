package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth        *AuthHandler
	Dashboard   *DashboardHandler
	Transaction *TransactionHandler
	Category    *CategoryHandler
	Company     *CompanyHandler
	User        *UserHandler
}

// RouteLimits carries the rate limiters applied to public and authenticated routes
type RouteLimits struct {
	Public *middleware.RateLimiter
	API    *middleware.RateLimiter
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limits RouteLimits, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")

	// Public auth routes, limited per client address
	public := api.Group("/auth")
	if limits.Public != nil {
		public.Use(middleware.RateLimitMiddleware(limits.Public, middleware.ByIP))
	}
	public.POST("/login", h.Auth.Login)
	public.POST("/recuperar-senha", h.Auth.RequestPasswordReset)
	public.POST("/alterar-senha", h.Auth.ResetPassword)

	// Everything below requires a session
	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())
	if limits.API != nil {
		protected.Use(middleware.RateLimitMiddleware(limits.API, middleware.ByUser))
	}

	protected.GET("/auth/me", h.Auth.Me)

	protected.GET("/dashboard", h.Dashboard.GetDashboard)

	transactions := protected.Group("/lancamentos")
	transactions.GET("", h.Transaction.ListTransactions)
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id", h.Transaction.ReplaceTransaction)
	transactions.PATCH("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	categories := protected.Group("/categorias")
	categories.GET("", h.Category.ListCategories)
	categories.POST("", h.Category.CreateCategory)
	categories.GET("/:id", h.Category.GetCategory)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.PATCH("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	companies := protected.Group("/empresas")
	companies.GET("", h.Company.ListCompanies)
	companies.GET("/:id", h.Company.GetCompany)
	companies.POST("", h.Company.CreateCompany, adminOnly)
	companies.PUT("/:id", h.Company.UpdateCompany, adminOnly)
	companies.PATCH("/:id", h.Company.UpdateCompany, adminOnly)
	companies.DELETE("/:id", h.Company.DeleteCompany, adminOnly)

	users := protected.Group("/usuarios", adminOnly)
	users.GET("", h.User.ListUsers)
	users.POST("", h.User.CreateUser)
	users.GET("/:id", h.User.GetUser)
	users.PATCH("/:id", h.User.UpdateUser)
	users.DELETE("/:id", h.User.DeleteUser)
}
