package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"satshop/internal/auth"
	"satshop/internal/config"
	"satshop/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	cashHandler *handler.CashHandler,
	orderHandler *handler.OrderHandler,
	clientHandler *handler.ClientHandler,
	settingsHandler *handler.SettingsHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Public order tracking, also mounted at the root for short links
	api.GET("/t/:token", orderHandler.PublicOrder)
	e.GET("/t/:token", orderHandler.PublicOrder)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		TokenLookup: "header:" + echo.HeaderAuthorization,
	}))

	// User management
	secured.POST("/users", userHandler.CreateUser)
	secured.GET("/users", userHandler.ListUsers)
	secured.PUT("/users/:id", userHandler.UpdateUser)
	secured.PUT("/users/:id/role", userHandler.ChangeRole)
	secured.POST("/users/:id/deactivate", userHandler.DeactivateUser)
	secured.DELETE("/users/:id", userHandler.DeleteUser)

	// Cash ledger
	secured.POST("/cash", cashHandler.RecordEntry)
	secured.GET("/cash", cashHandler.ListEntries)
	secured.GET("/cash/balance", cashHandler.CurrentBalance)
	secured.GET("/cash/balance/:sequence", cashHandler.BalanceAsOf)

	// Clients
	secured.POST("/clients", clientHandler.CreateClient)
	secured.GET("/clients", clientHandler.ListClients)
	secured.GET("/clients/:id", clientHandler.GetClient)
	secured.PUT("/clients/:id", clientHandler.UpdateClient)

	// Orders
	secured.POST("/orders", orderHandler.CreateOrder)
	secured.GET("/orders", orderHandler.ListOrders)
	secured.GET("/orders/:id", orderHandler.GetOrder)
	secured.PUT("/orders/:id", orderHandler.UpdateOrder)
	secured.POST("/orders/:id/status", orderHandler.ChangeStatus)
	secured.GET("/orders/:id/parts", orderHandler.ListParts)
	secured.POST("/orders/:id/parts", orderHandler.AddPart)
	secured.DELETE("/orders/:id/parts/:partID", orderHandler.RemovePart)
	secured.GET("/orders/:id/share", orderHandler.ShareLink)

	// Settings
	secured.GET("/settings", settingsHandler.GetSettings)
	secured.PUT("/settings", settingsHandler.UpdateSettings)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
