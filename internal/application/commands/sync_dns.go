package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/mail-relay/internal/application/dto"
	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/records"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/config"
	"github.com/google/uuid"
)

// SyncDNS re-plans a stored domain and reconciles the registrar, without
// talking to the identity provider.
type SyncDNS struct {
	repo       interfaces.DomainRepo
	planner    *records.Planner
	reconciler *Reconciler
}

func NewSyncDNS(cfg *config.ProvisionConfig, repo interfaces.DomainRepo, reconciler *Reconciler) *SyncDNS {
	return &SyncDNS{
		repo:       repo,
		planner:    records.NewPlanner(cfg.Region, cfg.RecordTTL),
		reconciler: reconciler,
	}
}

func (c *SyncDNS) Execute(ctx context.Context, userID string, domainID uuid.UUID) (*dto.ProvisioningOutcome, error) {
	d, err := c.repo.FindByID(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if !d.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: %s", errs.ErrDomainNotFound, domainID)
	}

	planned := c.planner.Plan(d.Name, d.VerificationToken, d.DkimTokens)
	created, instructions := c.reconciler.Reconcile(ctx, d.Name, planned)

	update := interfaces.DomainUpdate{DNSRecords: planned}
	if err = c.repo.UpdateFields(ctx, d.ID, update); err != nil {
		return nil, err
	}
	applyUpdate(d, update)

	slog.Info("dns synced", "domain", d.Name, "created", len(created))
	return newOutcome(d, planned, created, instructions), nil
}
