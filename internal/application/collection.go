package application

import (
	"github.com/Builder-Lawyers/mail-relay/internal/application/commands"
	"github.com/Builder-Lawyers/mail-relay/internal/application/query"
)

type Handlers struct {
	*commands.ProvisionDomain
	*commands.SyncDNS
	*commands.CheckVerification
	*commands.DeleteDomain
	*query.GetDomain
	*query.ListDomains
}
