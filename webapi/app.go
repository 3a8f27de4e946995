// Package webapi exposes the ledger over HTTP.
package webapi

import (
	"time"

	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/webapi/account"
	"github.com/amirasaad/ledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the Fiber app and registers every route.
func NewApp(a *app.App) *fiber.App {
	rl := a.Config.RateLimit
	if rl == nil {
		rl = &config.RateLimit{MaxRequests: 100, Window: time.Minute}
	}

	fiberApp := fiber.New(fiber.Config{
		AppName: "ledger",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Default to 500 if status code cannot be determined
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
				return common.ErrorResponseJSON(c, status, e.Message, err.Error())
			}
			return common.ErrorResponseJSON(c, status, "Internal Server Error", "an unexpected error occurred")
		},
	})

	fiberApp.Use(recover.New())
	if a.Config.Env != "test" {
		fiberApp.Use(logger.New())
	}
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        rl.MaxRequests,
		Expiration: rl.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
		},
	}))

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("App is working! 🚀")
	})

	account.Routes(fiberApp, a.LedgerService, a.AccountService)

	return fiberApp
}
