package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/dto"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/config"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/metrics"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type CheckVerification struct {
	cfg      *config.ProvisionConfig
	repo     interfaces.DomainRepo
	identity interfaces.IdentityProvider
	metrics  *metrics.Metrics
}

func NewCheckVerification(
	cfg *config.ProvisionConfig, repo interfaces.DomainRepo, identity interfaces.IdentityProvider, m *metrics.Metrics,
) *CheckVerification {
	return &CheckVerification{
		cfg:      cfg,
		repo:     repo,
		identity: identity,
		metrics:  m,
	}
}

// Execute refreshes the stored status of one domain from the identity provider.
func (c *CheckVerification) Execute(ctx context.Context, domainID uuid.UUID) (consts.DomainStatus, error) {
	d, err := c.repo.FindByID(ctx, domainID)
	if err != nil {
		return "", err
	}
	return c.check(ctx, d)
}

// RefreshAllPending checks every pending domain, pacing provider calls by
// the configured sweep delay. A failing domain is counted and skipped.
func (c *CheckVerification) RefreshAllPending(ctx context.Context) (dto.RefreshSummary, error) {
	var summary dto.RefreshSummary
	pending, err := c.repo.ListPending(ctx)
	if err != nil {
		return summary, err
	}

	limit := rate.Inf
	if c.cfg.SweepDelay > 0 {
		limit = rate.Every(c.cfg.SweepDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i := range pending {
		if err = limiter.Wait(ctx); err != nil {
			return summary, err
		}
		summary.Checked++
		status, err := c.check(ctx, &pending[i])
		if err != nil {
			summary.Errors++
			slog.Warn("verification check failed", "domain", pending[i].Name, "err", err)
			continue
		}
		switch status {
		case consts.DomainStatusVerified:
			summary.Verified++
		case consts.DomainStatusFailed:
			summary.Failed++
		}
	}
	slog.Info("pending domains refreshed", "checked", summary.Checked, "verified", summary.Verified,
		"failed", summary.Failed, "errors", summary.Errors)
	return summary, nil
}

func (c *CheckVerification) check(ctx context.Context, d *entity.Domain) (consts.DomainStatus, error) {
	status, err := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) (consts.VerificationStatus, error) {
		return c.identity.GetVerificationStatus(ctx, d.Name)
	})
	if err != nil {
		return d.Status, err
	}
	mapped := status.ToDomainStatus()
	c.metrics.VerificationChecked(string(mapped))
	if mapped == d.Status {
		return mapped, nil
	}

	if err = c.repo.UpdateFields(ctx, d.ID, interfaces.DomainUpdate{Status: &mapped}); err != nil {
		return d.Status, err
	}
	slog.Info("domain status changed", "domain", d.Name, "from", d.Status, "to", mapped)
	d.Status = mapped
	d.UpdatedAt = time.Now()
	return mapped, nil
}
