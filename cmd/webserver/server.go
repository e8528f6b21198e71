package main

import (
	"path"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// newApp serves the built bundle in buildDir. Client-side routes such as
// /sessions/<id> get index.html; missing assets stay 404.
func newApp(buildDir string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "JobMatch Web",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(healthcheck.New())

	app.Static("/", buildDir, fiber.Static{
		Compress: true,
		Index:    "index.html",
	})

	index := filepath.Join(buildDir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		if path.Ext(c.Path()) != "" {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).SendString(err.Error())
}
