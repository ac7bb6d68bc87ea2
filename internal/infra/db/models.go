package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/google/uuid"
)

type Domain struct {
	ID                uuid.UUID           `db:"id"`
	UserID            string              `db:"user_id"`
	Name              string              `db:"name"`
	Status            consts.DomainStatus `db:"status"`
	VerificationToken string              `db:"verification_token"`
	ConfigurationSet  string              `db:"configuration_set"`
	DkimTokens        json.RawMessage     `db:"dkim_tokens"`
	DNSRecords        json.RawMessage     `db:"dns_records"`
	SMTPCredentials   json.RawMessage     `db:"smtp_credentials"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

func MapDomainToModel(d *entity.Domain) (Domain, error) {
	dkim, err := MarshalJSONList(d.DkimTokens)
	if err != nil {
		return Domain{}, err
	}
	recs, err := MarshalJSONList(d.DNSRecords)
	if err != nil {
		return Domain{}, err
	}
	var creds json.RawMessage
	if d.SMTPCredentials != nil {
		if creds, err = json.Marshal(d.SMTPCredentials); err != nil {
			return Domain{}, fmt.Errorf("err marshalling smtp credentials, %v", err)
		}
	}
	return Domain{
		ID:                d.ID,
		UserID:            d.UserID,
		Name:              d.Name,
		Status:            d.Status,
		VerificationToken: d.VerificationToken,
		ConfigurationSet:  d.ConfigurationSet,
		DkimTokens:        dkim,
		DNSRecords:        recs,
		SMTPCredentials:   creds,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

func MapModelToDomain(m Domain) (*entity.Domain, error) {
	d := &entity.Domain{
		ID:                m.ID,
		UserID:            m.UserID,
		Name:              m.Name,
		Status:            m.Status,
		VerificationToken: m.VerificationToken,
		ConfigurationSet:  m.ConfigurationSet,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if len(m.DkimTokens) > 0 {
		if err := json.Unmarshal(m.DkimTokens, &d.DkimTokens); err != nil {
			return nil, fmt.Errorf("err unmarshalling dkim tokens, %v", err)
		}
	}
	if len(m.DNSRecords) > 0 {
		if err := json.Unmarshal(m.DNSRecords, &d.DNSRecords); err != nil {
			return nil, fmt.Errorf("err unmarshalling dns records, %v", err)
		}
	}
	if len(m.SMTPCredentials) > 0 && string(m.SMTPCredentials) != "null" {
		d.SMTPCredentials = &entity.SMTPCredentials{}
		if err := json.Unmarshal(m.SMTPCredentials, d.SMTPCredentials); err != nil {
			return nil, fmt.Errorf("err unmarshalling smtp credentials, %v", err)
		}
	}
	return d, nil
}

// MarshalJSONList encodes a nil slice as [] so JSONB columns never hold null.
func MarshalJSONList[T any](items []T) (json.RawMessage, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("err marshalling list, %v", err)
	}
	return raw, nil
}
