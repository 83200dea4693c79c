package handler

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studyguide/internal/http/middleware"
	"studyguide/internal/service"
)

// slugRe matches chapter slugs as they appear in filenames and URLs.
var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// downloadExpiry is how long presigned chapter download URLs stay valid.
const downloadExpiry = 15 * time.Minute

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; they validate input, call the
// service, and translate errors into the standard envelope.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.CorpusService, metrics *middleware.PrometheusMiddleware) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/toc", GetTOC(svc))
	app.Get("/validate", ValidateCorpus(svc, metrics))

	app.Get("/chapters", ListChapters(svc))
	app.Post("/chapters", PublishChapter(svc))
	app.Get("/chapters/:slug", GetChapter(svc))
	app.Get("/chapters/:slug/html", GetChapterHTML(svc))
	app.Get("/chapters/:slug/download", DownloadChapter(svc))
	app.Delete("/chapters/:slug", DeleteChapter(svc))
}

// HealthCheck reports service health; it checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// GetTOC returns the generated table of contents in reading order.
func GetTOC(svc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := svc.TOC(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": entries, "total": len(entries)})
	}
}

// ValidateCorpus runs the corpus-wide integrity checks and returns the report.
func ValidateCorpus(svc service.CorpusService, metrics *middleware.PrometheusMiddleware) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.Validate(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if metrics != nil {
			metrics.RecordValidation(report.ChapterCount, report.ErrorCount, report.WarningCount)
		}
		return c.JSON(report)
	}
}

// ListChapters lists chapter metadata with limit & offset.
func ListChapters(svc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// PublishChapter accepts a chapter file (multipart/form-data, field name: file),
// lints it, and stores it. Lint failures come back as 422 with the issues.
func PublishChapter(svc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ch, issues, err := svc.Publish(c.UserContext(), f, fh.Filename, fh.Size)
		if err != nil {
			if errors.Is(err, service.ErrChapterInvalid) {
				return writeLintError(c, issues)
			}
			if errors.Is(err, service.ErrChapterTooBig) {
				return writeError(c, fiber.StatusRequestEntityTooLarge, "CHAPTER_TOO_LARGE", "chapter exceeds size limit")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"chapter": ch, "warnings": issues})
	}
}

// GetChapter returns chapter metadata by slug.
func GetChapter(svc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if !slugRe.MatchString(slug) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SLUG", "invalid slug format")
		}
		ch, err := svc.Get(c.UserContext(), slug)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "chapter not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(ch)
	}
}

// GetChapterHTML renders a chapter body to HTML.
func GetChapterHTML(svc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if !slugRe.MatchString(slug) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SLUG", "invalid slug format")
		}
		html, err := svc.RenderHTML(c.UserContext(), slug)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "chapter not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		c.Type("html", "utf-8")
		return c.Send(html)
	}
}

// DownloadChapter returns a presigned URL for the raw Markdown body.
func DownloadChapter(svc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if !slugRe.MatchString(slug) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SLUG", "invalid slug format")
		}
		u, err := svc.DownloadURL(c.UserContext(), slug, downloadExpiry)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "chapter not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"url": u})
	}
}

// DeleteChapter removes a chapter by slug.
func DeleteChapter(svc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if !slugRe.MatchString(slug) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SLUG", "invalid slug format")
		}
		if err := svc.Delete(c.UserContext(), slug); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "chapter not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
