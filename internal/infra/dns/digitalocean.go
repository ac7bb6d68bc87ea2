package dns

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/classify"
	"github.com/digitalocean/godo"
)

const (
	digitalOceanName = "digitalocean"
	perPage          = 200
)

type DigitalOcean struct {
	client *godo.Client
	retry  RetryPolicy
}

var _ interfaces.Registrar = (*DigitalOcean)(nil)

func NewDigitalOcean(token string, retry RetryPolicy) *DigitalOcean {
	return &DigitalOcean{client: godo.NewFromToken(token), retry: retry}
}

func NewDigitalOceanWithClient(client *godo.Client, retry RetryPolicy) *DigitalOcean {
	return &DigitalOcean{client: client, retry: retry}
}

func (d *DigitalOcean) Name() string {
	return digitalOceanName
}

func (d *DigitalOcean) Enabled() bool {
	return true
}

func (d *DigitalOcean) ListZones(ctx context.Context) ([]string, error) {
	var zones []string
	opt := &godo.ListOptions{Page: 1, PerPage: perPage}
	for {
		var resp *godo.Response
		page, err := Retry(ctx, d.retry, "ListDomains", func(ctx context.Context) ([]godo.Domain, error) {
			domains, r, err := d.client.Domains.List(ctx, opt)
			resp = r
			return domains, err
		})
		if err != nil {
			return nil, errs.NewProviderError(digitalOceanName, "ListDomains", err)
		}
		for _, domain := range page {
			zones = append(zones, normalizeName(domain.Name))
		}
		if lastPage(resp) {
			return zones, nil
		}
		opt.Page++
	}
}

func (d *DigitalOcean) ListRecords(ctx context.Context, zone string) ([]entity.RegistrarRecord, error) {
	var out []entity.RegistrarRecord
	opt := &godo.ListOptions{Page: 1, PerPage: perPage}
	for {
		var resp *godo.Response
		page, err := Retry(ctx, d.retry, "ListRecords", func(ctx context.Context) ([]godo.DomainRecord, error) {
			recs, r, err := d.client.Domains.Records(ctx, zone, opt)
			resp = r
			return recs, err
		})
		if err != nil {
			return nil, errs.NewProviderError(digitalOceanName, "ListRecords", err)
		}
		for _, rec := range page {
			out = append(out, fromDORecord(zone, rec))
		}
		if lastPage(resp) {
			return out, nil
		}
		opt.Page++
	}
}

// CreateRecord publishes record in zone. A record that already exists is
// reported as consts.AlreadyExists with a nil error.
func (d *DigitalOcean) CreateRecord(ctx context.Context, zone string, record entity.DNSRecord) (entity.RegistrarRecord, consts.Outcome, error) {
	req, err := toDORequest(zone, record)
	if err != nil {
		return entity.RegistrarRecord{}, consts.FatalFailure, errs.NewProviderError(digitalOceanName, "CreateRecord", err)
	}

	created, err := Retry(ctx, d.retry, "CreateRecord", func(ctx context.Context) (*godo.DomainRecord, error) {
		rec, _, err := d.client.Domains.CreateRecord(ctx, zone, req)
		return rec, err
	})

	outcome := classify.Classify(err)
	switch outcome {
	case consts.Created:
		slog.Info("created dns record", "zone", zone, "type", record.Type, "name", record.Name)
		return fromDORecord(zone, *created), outcome, nil
	case consts.AlreadyExists:
		slog.Info("dns record already exists", "zone", zone, "type", record.Type, "name", record.Name)
		return entity.RegistrarRecord{Zone: zone, Record: record}, outcome, nil
	default:
		return entity.RegistrarRecord{}, outcome, errs.NewProviderError(digitalOceanName, "CreateRecord", err)
	}
}

func toDORequest(zone string, record entity.DNSRecord) (*godo.DomainRecordEditRequest, error) {
	req := &godo.DomainRecordEditRequest{
		Type: string(record.Type),
		Name: relativeName(record.Name, zone),
		Data: record.Value,
		TTL:  record.TTL,
	}
	switch record.Type {
	case consts.RecordMX:
		priority, host, err := splitMX(record.Value)
		if err != nil {
			return nil, err
		}
		req.Priority = priority
		req.Data = ensureTrailingDot(host)
	case consts.RecordCNAME:
		req.Data = ensureTrailingDot(record.Value)
	}
	return req, nil
}

func fromDORecord(zone string, rec godo.DomainRecord) entity.RegistrarRecord {
	value := rec.Data
	switch consts.RecordType(rec.Type) {
	case consts.RecordMX:
		value = fmt.Sprintf("%d %s", rec.Priority, targetName(rec.Data, zone))
	case consts.RecordCNAME:
		value = targetName(rec.Data, zone)
	}
	return entity.RegistrarRecord{
		ID:   strconv.Itoa(rec.ID),
		Zone: zone,
		Record: entity.DNSRecord{
			Type:  consts.RecordType(rec.Type),
			Name:  absoluteName(rec.Name, zone),
			Value: value,
			TTL:   rec.TTL,
		},
	}
}

func targetName(data, zone string) string {
	if data == apex {
		return ensureTrailingDot(normalizeName(zone))
	}
	return ensureTrailingDot(data)
}

func lastPage(resp *godo.Response) bool {
	return resp == nil || resp.Links == nil || resp.Links.IsLastPage()
}
