package dns

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/classify"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	rTypes "github.com/aws/aws-sdk-go-v2/service/route53/types"
)

const route53Name = "route53"

type Route53API interface {
	ListHostedZones(ctx context.Context, params *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
	ListHostedZonesByName(ctx context.Context, params *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
	ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

// Route53 publishes records into hosted zones of the configured AWS account.
type Route53 struct {
	client Route53API
	retry  RetryPolicy

	mu      sync.Mutex
	zoneIDs map[string]string
}

var _ interfaces.Registrar = (*Route53)(nil)

func NewRoute53(awsConfig aws.Config, retry RetryPolicy) *Route53 {
	return NewRoute53WithClient(route53.NewFromConfig(awsConfig), retry)
}

func NewRoute53WithClient(client Route53API, retry RetryPolicy) *Route53 {
	return &Route53{client: client, retry: retry, zoneIDs: make(map[string]string)}
}

func (r *Route53) Name() string {
	return route53Name
}

func (r *Route53) Enabled() bool {
	return true
}

func (r *Route53) ListZones(ctx context.Context) ([]string, error) {
	var zones []string
	input := &route53.ListHostedZonesInput{}
	for {
		res, err := Retry(ctx, r.retry, "ListHostedZones", func(ctx context.Context) (*route53.ListHostedZonesOutput, error) {
			return r.client.ListHostedZones(ctx, input)
		})
		if err != nil {
			return nil, errs.NewProviderError(route53Name, "ListHostedZones", err)
		}
		for _, zone := range res.HostedZones {
			name := normalizeName(aws.ToString(zone.Name))
			r.rememberZone(name, aws.ToString(zone.Id))
			zones = append(zones, name)
		}
		if !res.IsTruncated || res.NextMarker == nil {
			return zones, nil
		}
		input.Marker = res.NextMarker
	}
}

func (r *Route53) ListRecords(ctx context.Context, zone string) ([]entity.RegistrarRecord, error) {
	zoneID, err := r.zoneID(ctx, zone)
	if err != nil {
		return nil, err
	}

	var out []entity.RegistrarRecord
	input := &route53.ListResourceRecordSetsInput{HostedZoneId: aws.String(zoneID)}
	for {
		res, err := Retry(ctx, r.retry, "ListResourceRecordSets", func(ctx context.Context) (*route53.ListResourceRecordSetsOutput, error) {
			return r.client.ListResourceRecordSets(ctx, input)
		})
		if err != nil {
			return nil, errs.NewProviderError(route53Name, "ListResourceRecordSets", err)
		}
		for _, set := range res.ResourceRecordSets {
			for _, rr := range set.ResourceRecords {
				out = append(out, entity.RegistrarRecord{
					ID:   aws.ToString(set.Name) + "/" + string(set.Type),
					Zone: zone,
					Record: entity.DNSRecord{
						Type:  consts.RecordType(set.Type),
						Name:  normalizeName(aws.ToString(set.Name)),
						Value: aws.ToString(rr.Value),
						TTL:   int(aws.ToInt64(set.TTL)),
					},
				})
			}
		}
		if !res.IsTruncated {
			return out, nil
		}
		input.StartRecordName = res.NextRecordName
		input.StartRecordType = res.NextRecordType
		input.StartRecordIdentifier = res.NextRecordIdentifier
	}
}

// CreateRecord adds record to the record set with the same name and type.
// TXT and MX sets hold several values, so a planned value is appended to an
// existing set with an UPSERT. A CNAME set that already points elsewhere is a
// conflict and is returned as consts.FatalFailure.
func (r *Route53) CreateRecord(ctx context.Context, zone string, record entity.DNSRecord) (entity.RegistrarRecord, consts.Outcome, error) {
	zoneID, err := r.zoneID(ctx, zone)
	if err != nil {
		return entity.RegistrarRecord{}, consts.FatalFailure, err
	}
	value, err := route53Value(record)
	if err != nil {
		return entity.RegistrarRecord{}, consts.FatalFailure, errs.NewProviderError(route53Name, "ChangeResourceRecordSets", err)
	}
	registered := entity.RegistrarRecord{ID: record.Name + "/" + string(record.Type), Zone: zone, Record: record}

	existing, err := r.recordSet(ctx, zoneID, record)
	if err != nil {
		return entity.RegistrarRecord{}, classify.Classify(err), errs.NewProviderError(route53Name, "ListResourceRecordSets", err)
	}

	set := &rTypes.ResourceRecordSet{
		Name:            aws.String(ensureTrailingDot(record.Name)),
		Type:            rTypes.RRType(record.Type),
		TTL:             aws.Int64(int64(record.TTL)),
		ResourceRecords: []rTypes.ResourceRecord{{Value: aws.String(value)}},
	}
	action := rTypes.ChangeActionCreate
	if existing != nil {
		if setHasValue(existing, record.Type, value) {
			slog.Info("route53 record reconciled", "zone", zone, "type", record.Type, "name", record.Name, "outcome", consts.AlreadyExists.String())
			return registered, consts.AlreadyExists, nil
		}
		if record.Type != consts.RecordTXT && record.Type != consts.RecordMX {
			return entity.RegistrarRecord{}, consts.FatalFailure, errs.NewProviderError(route53Name, "ChangeResourceRecordSets",
				fmt.Errorf("%s %s already points to another value", record.Type, record.Name))
		}
		action = rTypes.ChangeActionUpsert
		set.TTL = existing.TTL
		set.ResourceRecords = append(slices.Clone(existing.ResourceRecords), set.ResourceRecords...)
	}

	input := &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &rTypes.ChangeBatch{
			Comment: aws.String(record.Description),
			Changes: []rTypes.Change{{Action: action, ResourceRecordSet: set}},
		},
	}
	_, err = Retry(ctx, r.retry, "ChangeResourceRecordSets", func(ctx context.Context) (*route53.ChangeResourceRecordSetsOutput, error) {
		return r.client.ChangeResourceRecordSets(ctx, input)
	})

	outcome := classify.Classify(err)
	if outcome == consts.AlreadyExists {
		// Another writer created the set between the read and the CREATE.
		outcome, err = r.confirmPresent(ctx, zoneID, record, value, err)
	}
	switch outcome {
	case consts.Created, consts.AlreadyExists:
		slog.Info("route53 record reconciled", "zone", zone, "type", record.Type, "name", record.Name, "outcome", outcome.String(), "action", action)
		return registered, outcome, nil
	default:
		return entity.RegistrarRecord{}, outcome, errs.NewProviderError(route53Name, "ChangeResourceRecordSets", err)
	}
}

func (r *Route53) confirmPresent(ctx context.Context, zoneID string, record entity.DNSRecord, value string, createErr error) (consts.Outcome, error) {
	existing, err := r.recordSet(ctx, zoneID, record)
	if err != nil {
		return classify.Classify(err), err
	}
	if existing != nil && setHasValue(existing, record.Type, value) {
		return consts.AlreadyExists, nil
	}
	return consts.FatalFailure, createErr
}

// recordSet returns the set with record's name and type, or nil.
func (r *Route53) recordSet(ctx context.Context, zoneID string, record entity.DNSRecord) (*rTypes.ResourceRecordSet, error) {
	name := ensureTrailingDot(record.Name)
	res, err := Retry(ctx, r.retry, "ListResourceRecordSets", func(ctx context.Context) (*route53.ListResourceRecordSetsOutput, error) {
		return r.client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
			HostedZoneId:    aws.String(zoneID),
			StartRecordName: aws.String(name),
			StartRecordType: rTypes.RRType(record.Type),
		})
	})
	if err != nil {
		return nil, err
	}
	for i := range res.ResourceRecordSets {
		set := res.ResourceRecordSets[i]
		if normalizeName(aws.ToString(set.Name)) == normalizeName(name) && string(set.Type) == string(record.Type) {
			return &set, nil
		}
	}
	return nil, nil
}

func setHasValue(set *rTypes.ResourceRecordSet, recordType consts.RecordType, value string) bool {
	for _, rr := range set.ResourceRecords {
		existing := aws.ToString(rr.Value)
		if recordType == consts.RecordTXT {
			if existing == value {
				return true
			}
			continue
		}
		if strings.EqualFold(ensureTrailingDot(existing), ensureTrailingDot(value)) {
			return true
		}
	}
	return false
}

// route53Value renders record.Value in the zone-file form Route 53 stores.
func route53Value(record entity.DNSRecord) (string, error) {
	switch record.Type {
	case consts.RecordTXT:
		return `"` + strings.ReplaceAll(record.Value, `"`, `\"`) + `"`, nil
	case consts.RecordCNAME:
		return ensureTrailingDot(record.Value), nil
	case consts.RecordMX:
		priority, host, err := splitMX(record.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %s", priority, ensureTrailingDot(host)), nil
	default:
		return record.Value, nil
	}
}

func (r *Route53) rememberZone(name, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zoneIDs[name] = trimZoneID(id)
}

func (r *Route53) zoneID(ctx context.Context, zone string) (string, error) {
	zone = normalizeName(zone)
	r.mu.Lock()
	id, ok := r.zoneIDs[zone]
	r.mu.Unlock()
	if ok {
		return id, nil
	}

	res, err := Retry(ctx, r.retry, "ListHostedZonesByName", func(ctx context.Context) (*route53.ListHostedZonesByNameOutput, error) {
		return r.client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{DNSName: aws.String(zone)})
	})
	if err != nil {
		return "", errs.NewProviderError(route53Name, "ListHostedZonesByName", err)
	}
	for _, hostedZone := range res.HostedZones {
		if normalizeName(aws.ToString(hostedZone.Name)) == zone {
			r.rememberZone(zone, aws.ToString(hostedZone.Id))
			return trimZoneID(aws.ToString(hostedZone.Id)), nil
		}
	}
	return "", errs.NewProviderError(route53Name, "ListHostedZonesByName", fmt.Errorf("hosted zone %s not found", zone))
}

// trimZoneID strips the "/hostedzone/" prefix Route 53 puts on zone ids.
func trimZoneID(id string) string {
	return strings.TrimPrefix(id, "/hostedzone/")
}
