package query

import (
	"context"
	"fmt"

	"github.com/Builder-Lawyers/mail-relay/internal/application/dto"
	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/google/uuid"
)

type GetDomain struct {
	interfaces.DomainRepo
}

func NewGetDomain(repo interfaces.DomainRepo) *GetDomain {
	return &GetDomain{repo}
}

// Query hides domains of other users behind ErrDomainNotFound.
func (q *GetDomain) Query(ctx context.Context, userID string, domainID uuid.UUID) (dto.DomainResponse, error) {
	d, err := q.FindByID(ctx, domainID)
	if err != nil {
		return dto.DomainResponse{}, err
	}
	if !d.OwnedBy(userID) {
		return dto.DomainResponse{}, fmt.Errorf("%w: %s", errs.ErrDomainNotFound, domainID)
	}
	return dto.NewDomainResponse(d), nil
}
