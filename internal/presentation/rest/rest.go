package rest

import (
	"errors"
	"log/slog"

	"github.com/Builder-Lawyers/mail-relay/internal/application"
	"github.com/Builder-Lawyers/mail-relay/internal/application/dto"
	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/auth"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
)

type Server struct {
	commands *application.Handlers
}

func NewServer(commands *application.Handlers) *Server {
	return &Server{commands: commands}
}

// RegisterHandlers mounts the public probes and the authenticated domain API.
// Fleet-wide maintenance additionally passes through maintenanceMiddleware.
func RegisterHandlers(app *fiber.App, s *Server, authMiddleware, maintenanceMiddleware fiber.Handler, m *metrics.Metrics) {
	app.Get("/health", s.Health)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/", authMiddleware)
	api.Post("/domains", s.CreateDomain)
	api.Get("/domains", s.ListDomains)
	api.Get("/domains/:id", s.GetDomain)
	api.Post("/domains/:id/verify", s.VerifyDomain)
	api.Post("/domains/:id/dns-sync", s.SyncDNS)
	api.Delete("/domains/:id", s.DeleteDomain)
	api.Post("/maintenance/verify-pending", maintenanceMiddleware, s.VerifyPending)
}

func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) CreateDomain(c *fiber.Ctx) error {
	var req dto.CreateDomainRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	outcome, err := s.commands.ProvisionDomain.Execute(c.UserContext(), auth.UserID(c), req.Name)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(outcome)
}

func (s *Server) ListDomains(c *fiber.Ctx) error {
	resp, err := s.commands.ListDomains.Query(c.UserContext(), auth.UserID(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) GetDomain(c *fiber.Ctx) error {
	id, err := domainID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := s.commands.GetDomain.Query(c.UserContext(), auth.UserID(c), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) VerifyDomain(c *fiber.Ctx) error {
	id, err := domainID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	if _, err = s.commands.GetDomain.Query(c.UserContext(), auth.UserID(c), id); err != nil {
		return writeError(c, err)
	}

	status, err := s.commands.CheckVerification.Execute(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.VerifyDomainResponse{ID: id, Status: status})
}

func (s *Server) SyncDNS(c *fiber.Ctx) error {
	id, err := domainID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	outcome, err := s.commands.SyncDNS.Execute(c.UserContext(), auth.UserID(c), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(outcome)
}

func (s *Server) DeleteDomain(c *fiber.Ctx) error {
	id, err := domainID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if err = s.commands.DeleteDomain.Execute(c.UserContext(), auth.UserID(c), id); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) VerifyPending(c *fiber.Ctx) error {
	summary, err := s.commands.CheckVerification.RefreshAllPending(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

func domainID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func writeError(c *fiber.Ctx, err error) error {
	var providerErr *errs.ProviderError
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrInvalidDomainFormat):
		status = fiber.StatusBadRequest
	case errors.Is(err, errs.ErrDomainOwnedByAnotherUser):
		status = fiber.StatusConflict
	case errors.Is(err, errs.ErrDomainNotFound):
		status = fiber.StatusNotFound
	case errors.As(err, &providerErr):
		status = fiber.StatusBadGateway
	}
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}
