package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/db/repo"
	shared "github.com/Builder-Lawyers/mail-relay/pkg/interfaces"
	"github.com/google/uuid"
)

type DeleteDomain struct {
	uowFactory shared.UoWFactory
}

func NewDeleteDomain(factory shared.UoWFactory) *DeleteDomain {
	return &DeleteDomain{uowFactory: factory}
}

// Execute removes the domain and its API keys in one transaction.
func (c *DeleteDomain) Execute(ctx context.Context, userID string, domainID uuid.UUID) (err error) {
	uow := c.uowFactory.GetUoW()
	if _, err = uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Finalize(ctx, &err)

	domains := repo.NewDomainRepo(uow.GetTx())
	d, err := domains.FindByID(ctx, domainID)
	if err != nil {
		return err
	}
	if !d.OwnedBy(userID) {
		return fmt.Errorf("%w: %s", errs.ErrDomainNotFound, domainID)
	}
	if err = domains.Delete(ctx, d.ID); err != nil {
		return err
	}
	slog.Info("domain deleted", "domain", d.Name, "user", userID)
	return nil
}
