package dns_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/commands"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/records"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/dns"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/metrics"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	rTypes "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

// fakeRoute53 keeps record sets per hosted zone id.
type fakeRoute53 struct {
	zones   map[string]string // id -> name with trailing dot
	sets    map[string][]rTypes.ResourceRecordSet
	changes int
}

func newFakeRoute53() *fakeRoute53 {
	return &fakeRoute53{
		zones: map[string]string{"/hostedzone/Z123": "example.com."},
		sets:  make(map[string][]rTypes.ResourceRecordSet),
	}
}

func (f *fakeRoute53) ListHostedZones(context.Context, *route53.ListHostedZonesInput, ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error) {
	out := &route53.ListHostedZonesOutput{}
	for id, name := range f.zones {
		out.HostedZones = append(out.HostedZones, rTypes.HostedZone{Id: aws.String(id), Name: aws.String(name)})
	}
	return out, nil
}

func (f *fakeRoute53) ListHostedZonesByName(_ context.Context, in *route53.ListHostedZonesByNameInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error) {
	out := &route53.ListHostedZonesByNameOutput{}
	for id, name := range f.zones {
		if strings.TrimSuffix(name, ".") == strings.TrimSuffix(aws.ToString(in.DNSName), ".") {
			out.HostedZones = append(out.HostedZones, rTypes.HostedZone{Id: aws.String(id), Name: aws.String(name)})
		}
	}
	return out, nil
}

func (f *fakeRoute53) ListResourceRecordSets(_ context.Context, in *route53.ListResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	return &route53.ListResourceRecordSetsOutput{ResourceRecordSets: f.sets[aws.ToString(in.HostedZoneId)]}, nil
}

func (f *fakeRoute53) ChangeResourceRecordSets(_ context.Context, in *route53.ChangeResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	zoneID := aws.ToString(in.HostedZoneId)
	for _, change := range in.ChangeBatch.Changes {
		set := change.ResourceRecordSet
		replaced := false
		for i, existing := range f.sets[zoneID] {
			if aws.ToString(existing.Name) != aws.ToString(set.Name) || existing.Type != set.Type {
				continue
			}
			if change.Action != rTypes.ChangeActionUpsert {
				return nil, &smithy.GenericAPIError{
					Code:    "InvalidChangeBatch",
					Message: fmt.Sprintf("Tried to create resource record set [name='%s', type='%s'] but it already exists", aws.ToString(set.Name), set.Type),
				}
			}
			f.sets[zoneID][i] = *set
			replaced = true
		}
		if !replaced {
			f.sets[zoneID] = append(f.sets[zoneID], *set)
		}
		f.changes++
	}
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

func TestRoute53CreateAndListRecords(t *testing.T) {
	fake := newFakeRoute53()
	SUT := dns.NewRoute53WithClient(fake, fastRetry())
	ctx := context.Background()

	zone, ok, err := dns.FindZone(ctx, SUT, "example.com")
	require.NoError(t, err)
	require.True(t, ok)

	plan := records.NewPlanner("us-east-1", 0).Plan("example.com", "tok-123", []string{"k1"})
	for _, rec := range plan {
		_, _, err := SUT.CreateRecord(ctx, zone, rec)
		require.NoError(t, err)
	}

	stored := fake.sets["Z123"]
	require.Equal(t, "_amazonses.example.com.", aws.ToString(stored[0].Name))
	require.Equal(t, `"tok-123"`, aws.ToString(stored[0].ResourceRecords[0].Value))
	require.Equal(t, "10 inbound-smtp.us-east-1.amazonaws.com.", aws.ToString(stored[1].ResourceRecords[0].Value))

	existing, err := SUT.ListRecords(ctx, zone)
	require.NoError(t, err)
	var recs []entity.DNSRecord
	for _, e := range existing {
		recs = append(recs, e.Record)
	}
	require.Empty(t, records.Missing(plan, recs))
}

func TestRoute53ExistingRecordSetIsAlreadyExists(t *testing.T) {
	fake := newFakeRoute53()
	SUT := dns.NewRoute53WithClient(fake, fastRetry())
	rec := entity.DNSRecord{Type: consts.RecordTXT, Name: "_dmarc.example.com", Value: "v=DMARC1; p=quarantine", TTL: 1800}

	_, outcome, err := SUT.CreateRecord(context.Background(), "example.com", rec)
	require.NoError(t, err)
	require.Equal(t, consts.Created, outcome)

	_, outcome, err = SUT.CreateRecord(context.Background(), "example.com", rec)
	require.NoError(t, err)
	require.Equal(t, consts.AlreadyExists, outcome)
	require.Equal(t, 1, fake.changes)
}

func (f *fakeRoute53) preload(name string, rrType rTypes.RRType, values ...string) {
	set := rTypes.ResourceRecordSet{Name: aws.String(name), Type: rrType, TTL: aws.Int64(300)}
	for _, v := range values {
		set.ResourceRecords = append(set.ResourceRecords, rTypes.ResourceRecord{Value: aws.String(v)})
	}
	f.sets["Z123"] = append(f.sets["Z123"], set)
}

func (f *fakeRoute53) values(name string, rrType rTypes.RRType) []string {
	var out []string
	for _, set := range f.sets["Z123"] {
		if aws.ToString(set.Name) == name && set.Type == rrType {
			for _, rr := range set.ResourceRecords {
				out = append(out, aws.ToString(rr.Value))
			}
		}
	}
	return out
}

func TestRoute53AppendsToExistingApexSets(t *testing.T) {
	fake := newFakeRoute53()
	fake.preload("example.com.", rTypes.RRTypeTxt, `"google-site-verification=abc"`)
	fake.preload("example.com.", rTypes.RRTypeMx, "5 mx.other-host.net.")
	SUT := dns.NewRoute53WithClient(fake, fastRetry())
	ctx := context.Background()

	plan := records.NewPlanner("us-east-1", 1800).Plan("example.com", "tok-123", nil)
	for _, rec := range plan {
		_, outcome, err := SUT.CreateRecord(ctx, "example.com", rec)
		require.NoError(t, err)
		require.Equal(t, consts.Created, outcome, rec.Name)
	}

	require.Equal(t, []string{`"google-site-verification=abc"`, `"v=spf1 include:amazonses.com ~all"`}, fake.values("example.com.", rTypes.RRTypeTxt))
	require.Equal(t, []string{"5 mx.other-host.net.", "10 inbound-smtp.us-east-1.amazonaws.com."}, fake.values("example.com.", rTypes.RRTypeMx))

	existing, err := SUT.ListRecords(ctx, "example.com")
	require.NoError(t, err)
	var recs []entity.DNSRecord
	for _, e := range existing {
		recs = append(recs, e.Record)
	}
	require.Empty(t, records.Missing(plan, recs))
}

func TestRoute53ReconcilePublishesSPFBesideOtherTXT(t *testing.T) {
	fake := newFakeRoute53()
	fake.preload("example.com.", rTypes.RRTypeTxt, `"google-site-verification=abc"`)
	registrar := dns.NewRoute53WithClient(fake, fastRetry())
	reconciler := commands.NewReconciler(registrar, time.Second, 0, metrics.New())

	plan := records.NewPlanner("us-east-1", 1800).Plan("example.com", "tok-123", nil)
	created, instructions := reconciler.Reconcile(context.Background(), "example.com", plan)

	require.Len(t, created, 4)
	require.Contains(t, fake.values("example.com.", rTypes.RRTypeTxt), `"v=spf1 include:amazonses.com ~all"`)
	require.Equal(t, "Created 4 DNS records automatically in route53 zone example.com.", instructions)
}

func TestRoute53ConflictingCNAMEFails(t *testing.T) {
	fake := newFakeRoute53()
	fake.preload("k1._domainkey.example.com.", rTypes.RRTypeCname, "elsewhere.example.net.")
	SUT := dns.NewRoute53WithClient(fake, fastRetry())
	rec := entity.DNSRecord{Type: consts.RecordCNAME, Name: "k1._domainkey.example.com", Value: "k1.dkim.amazonses.com.", TTL: 1800}

	_, outcome, err := SUT.CreateRecord(context.Background(), "example.com", rec)

	require.Error(t, err)
	require.Equal(t, consts.FatalFailure, outcome)
	require.Zero(t, fake.changes)
}

func TestRoute53UnknownZone(t *testing.T) {
	SUT := dns.NewRoute53WithClient(newFakeRoute53(), fastRetry())
	_, err := SUT.ListRecords(context.Background(), "example.org")
	require.Error(t, err)
}
