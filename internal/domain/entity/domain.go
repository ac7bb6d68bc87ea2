package entity

import (
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/google/uuid"
)

type Domain struct {
	ID                uuid.UUID
	UserID            string
	Name              string
	Status            consts.DomainStatus
	VerificationToken string
	ConfigurationSet  string
	DkimTokens        []string
	DNSRecords        []DNSRecord
	SMTPCredentials   *SMTPCredentials
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (d *Domain) OwnedBy(userID string) bool {
	return d.UserID == userID
}

// DNSRecord is produced only by the records planner. Name is an absolute
// name without trailing dot; MX values carry "priority host.".
type DNSRecord struct {
	Type        consts.RecordType `json:"type"`
	Name        string            `json:"name"`
	Value       string            `json:"value"`
	TTL         int               `json:"ttl"`
	Description string            `json:"description"`
}

// RegistrarRecord is a record as stored by a DNS registrar.
type RegistrarRecord struct {
	ID     string
	Zone   string
	Record DNSRecord
}

type SMTPCredentials struct {
	Username  string    `json:"username"`
	Server    string    `json:"server"`
	Port      int       `json:"port"`
	CreatedAt time.Time `json:"createdAt"`
}
