package dns

import (
	"context"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
)

// Disabled stands in when no registrar credentials are configured.
type Disabled struct{}

var _ interfaces.Registrar = Disabled{}

func (Disabled) Name() string  { return "none" }
func (Disabled) Enabled() bool { return false }

func (Disabled) ListZones(context.Context) ([]string, error) {
	return nil, errs.ErrRegistrarDisabled
}

func (Disabled) ListRecords(context.Context, string) ([]entity.RegistrarRecord, error) {
	return nil, errs.ErrRegistrarDisabled
}

func (Disabled) CreateRecord(context.Context, string, entity.DNSRecord) (entity.RegistrarRecord, consts.Outcome, error) {
	return entity.RegistrarRecord{}, consts.FatalFailure, errs.ErrRegistrarDisabled
}
