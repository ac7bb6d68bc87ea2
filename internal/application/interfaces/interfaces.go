package interfaces

import (
	"context"

	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/google/uuid"
)

// IdentityProvider verifies sending domains and manages their DKIM keys.
type IdentityProvider interface {
	VerifyDomain(ctx context.Context, domain string) (string, error)
	EnableSigning(ctx context.Context, domain string) ([]string, error)
	GetVerificationStatus(ctx context.Context, domain string) (consts.VerificationStatus, error)
	GetSigningTokens(ctx context.Context, domain string) ([]string, error)
	CreateSendingContext(ctx context.Context, domain string) (string, error)
}

// Registrar publishes DNS records. Names passed in and returned are absolute.
type Registrar interface {
	Name() string
	Enabled() bool
	ListZones(ctx context.Context) ([]string, error)
	ListRecords(ctx context.Context, zone string) ([]entity.RegistrarRecord, error)
	CreateRecord(ctx context.Context, zone string, record entity.DNSRecord) (entity.RegistrarRecord, consts.Outcome, error)
}

type DomainRepo interface {
	Insert(ctx context.Context, domain *entity.Domain) error
	UpdateFields(ctx context.Context, id uuid.UUID, update DomainUpdate) error
	FindByName(ctx context.Context, name string) (*entity.Domain, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Domain, error)
	ListPending(ctx context.Context) ([]entity.Domain, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Domain, error)
}

// DomainUpdate is a partial update; nil fields are left untouched.
type DomainUpdate struct {
	Status            *consts.DomainStatus
	VerificationToken *string
	ConfigurationSet  *string
	DkimTokens        []string
	DNSRecords        []entity.DNSRecord
}

func (u DomainUpdate) IsEmpty() bool {
	return u.Status == nil && u.VerificationToken == nil && u.ConfigurationSet == nil &&
		u.DkimTokens == nil && u.DNSRecords == nil
}
