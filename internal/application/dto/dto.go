package dto

import (
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/google/uuid"
)

// ProvisioningOutcome is what ProvisionDomain and SyncDNS hand back to the caller.
type ProvisioningOutcome struct {
	Domain           DomainResponse     `json:"domain"`
	DNSRecords       []entity.DNSRecord `json:"dnsRecords"`
	ConfigurationSet string             `json:"configurationSet,omitempty"`
	CreatedRecords   []entity.DNSRecord `json:"createdRecords"`
	Instructions     string             `json:"instructions"`
}

type RefreshSummary struct {
	Checked  int `json:"checked"`
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
	Errors   int `json:"errors"`
}

type CreateDomainRequest struct {
	Name string `json:"name"`
}

type DomainResponse struct {
	ID               uuid.UUID           `json:"id"`
	Name             string              `json:"name"`
	Status           consts.DomainStatus `json:"status"`
	ConfigurationSet string              `json:"configurationSet,omitempty"`
	DNSRecords       []entity.DNSRecord  `json:"dnsRecords"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

type ListDomainsResponse struct {
	Data []DomainResponse `json:"data"`
}

type VerifyDomainResponse struct {
	ID     uuid.UUID           `json:"id"`
	Status consts.DomainStatus `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewDomainResponse(d *entity.Domain) DomainResponse {
	records := d.DNSRecords
	if records == nil {
		records = []entity.DNSRecord{}
	}
	return DomainResponse{
		ID:               d.ID,
		Name:             d.Name,
		Status:           d.Status,
		ConfigurationSet: d.ConfigurationSet,
		DNSRecords:       records,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
