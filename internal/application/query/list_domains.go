package query

import (
	"context"

	"github.com/Builder-Lawyers/mail-relay/internal/application/dto"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
)

type ListDomains struct {
	interfaces.DomainRepo
}

func NewListDomains(repo interfaces.DomainRepo) *ListDomains {
	return &ListDomains{repo}
}

func (q *ListDomains) Query(ctx context.Context, userID string) (dto.ListDomainsResponse, error) {
	domains, err := q.ListByUser(ctx, userID)
	if err != nil {
		return dto.ListDomainsResponse{}, err
	}
	resp := dto.ListDomainsResponse{Data: make([]dto.DomainResponse, 0, len(domains))}
	for i := range domains {
		resp.Data = append(resp.Data, dto.NewDomainResponse(&domains[i]))
	}
	return resp, nil
}
