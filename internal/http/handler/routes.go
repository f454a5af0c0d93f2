package handler

import (
	"github.com/gofiber/fiber/v2"

	"esignapi/internal/http/middleware"
	"esignapi/internal/service"
)

// Deps are the services behind the HTTP routes. Limiter may be nil.
type Deps struct {
	DB       Pinger
	Docs     service.DocumentService
	Sessions service.SessionService
	Signing  service.SigningService
	Share    service.ShareService
	Limiter  *middleware.RateLimiter
}

// RegisterRoutes attaches the health probes and the /api/esign routes.
// Recipient endpoints are public and rate limited; everything else needs
// the caller identity set by the auth gateway.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	// Guards are attached per route: group-level Use would match the shared
	// /api/esign prefix and leak onto the other set of routes.
	limit := func(c *fiber.Ctx) error { return c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.Handler(TooManyRequests)
	}
	auth := middleware.Owner(Unauthorized)

	api := app.Group("/api/esign")

	api.Get("/share/docs/info", limit, ShareInfo(d.Share))
	api.Post("/share/docs/info", limit, ShareInfo(d.Share))
	api.Post("/docs/download", limit, DownloadShared(d.Share))
	api.Post("/upload/signed", limit, UploadSigned(d.Share))

	api.Post("/upload", auth, UploadDocument(d.Docs, d.Sessions))
	api.Get("/documents", auth, ListDocuments(d.Docs))
	api.Get("/documents/:id", auth, GetDocument(d.Docs))
	api.Get("/documents/:id/file", auth, DownloadDocument(d.Docs))
	api.Delete("/documents/:id", auth, DeleteDocument(d.Docs))

	api.Post("/share", auth, ShareDocument(d.Share))
	api.Get("/owner-docs/list", auth, OwnerDocs(d.Share))
	api.Get("/owner-docs/file-info", auth, OwnerDocInfo(d.Share))

	api.Get("/sessions/:id", auth, GetSession(d.Sessions))
	api.Delete("/sessions/:id", auth, DeleteSession(d.Sessions))
	api.Post("/sessions/:id/clear", auth, ClearSession(d.Sessions))
	api.Post("/sessions/:id/signatures", auth, AuthorSignatures(d.Sessions))
	api.Put("/sessions/:id/signatures/:sigID", auth, EditSignature(d.Sessions))
	api.Delete("/sessions/:id/signatures/:sigID", auth, RemoveSignature(d.Sessions))
	api.Post("/sessions/:id/placements", auth, AddPlacement(d.Sessions))
	api.Patch("/sessions/:id/placements/:pid", auth, UpdatePlacement(d.Sessions))
	api.Delete("/sessions/:id/placements/:pid", auth, RemovePlacement(d.Sessions))
	api.Post("/sessions/:id/placements/:pid/assign", auth, AssignPlacement(d.Sessions))
	api.Post("/sessions/:id/free-text", auth, AddFreeText(d.Sessions))
	api.Put("/sessions/:id/recipients", auth, SetRecipients(d.Sessions))
	api.Post("/sessions/:id/share", auth, ShareSession(d.Share))
	api.Post("/sessions/:id/sign", auth, SignSession(d.Signing))
}
