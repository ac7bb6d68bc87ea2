package records_test

import (
	"testing"

	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/records"
	"github.com/stretchr/testify/require"
)

func TestPlanIsDeterministic(t *testing.T) {
	p := records.NewPlanner("us-east-1", 0)
	first := p.Plan("example.com", "tok-123", []string{"dkim1", "dkim2"})
	second := p.Plan("example.com", "tok-123", []string{"dkim1", "dkim2"})
	require.Equal(t, first, second)
}

func TestPlanEmitsFixedRecordsThenSigningCNAMEs(t *testing.T) {
	p := records.NewPlanner("eu-west-1", 600)

	for n := 0; n <= 3; n++ {
		tokens := make([]string, n)
		for i := range tokens {
			tokens[i] = string(rune('a'+i)) + "tok"
		}
		plan := p.Plan("example.com", "tok-123", tokens)
		require.Len(t, plan, 4+n)

		want := []consts.RecordType{consts.RecordTXT, consts.RecordMX, consts.RecordTXT, consts.RecordTXT}
		for i, typ := range want {
			require.Equal(t, typ, plan[i].Type)
		}
		for _, rec := range plan[4:] {
			require.Equal(t, consts.RecordCNAME, rec.Type)
		}
	}
}

func TestPlanRecordContents(t *testing.T) {
	plan := records.NewPlanner("us-east-1", 0).Plan("example.com", "tok-123", []string{"dkim1"})

	require.Equal(t, "_amazonses.example.com", plan[0].Name)
	require.Equal(t, "tok-123", plan[0].Value)
	require.Equal(t, "example.com", plan[1].Name)
	require.Equal(t, "10 inbound-smtp.us-east-1.amazonaws.com.", plan[1].Value)
	require.Equal(t, "v=spf1 include:amazonses.com ~all", plan[2].Value)
	require.Equal(t, "_dmarc.example.com", plan[3].Name)
	require.Equal(t, "v=DMARC1; p=quarantine; rua=mailto:dmarc@example.com", plan[3].Value)
	require.Equal(t, "dkim1._domainkey.example.com", plan[4].Name)
	require.Equal(t, "dkim1.dkim.amazonses.com.", plan[4].Value)
	for _, rec := range plan {
		require.Equal(t, records.DefaultTTL, rec.TTL)
		require.NotEmpty(t, rec.Description)
	}
}

func TestMatches(t *testing.T) {
	mx := entity.DNSRecord{Type: consts.RecordMX, Name: "example.com", Value: "10 inbound-smtp.us-east-1.amazonaws.com."}

	require.True(t, records.Matches(mx, entity.DNSRecord{Type: "mx", Name: "Example.com.", Value: "10 inbound-smtp.us-east-1.amazonaws.com"}))
	require.False(t, records.Matches(mx, entity.DNSRecord{Type: consts.RecordMX, Name: "example.com", Value: "20 other.example.net."}))

	txt := entity.DNSRecord{Type: consts.RecordTXT, Name: "example.com", Value: "v=spf1 include:amazonses.com ~all"}
	require.True(t, records.Matches(txt, entity.DNSRecord{Type: consts.RecordTXT, Name: "example.com", Value: `"v=spf1 include:amazonses.com ~all"`}))

	token := entity.DNSRecord{Type: consts.RecordTXT, Name: "_amazonses.example.com", Value: "pmBGN/7MjnfhTKUZ06Enqq1PeGUaOkw8lGhcfwefcHU="}
	require.True(t, records.Matches(token, entity.DNSRecord{Type: consts.RecordTXT, Name: "_amazonses.example.com", Value: `"pmBGN/7MjnfhTKUZ06Enqq1PeGUaOkw8lGhcfwefcHU="`}))
	require.False(t, records.Matches(token, entity.DNSRecord{Type: consts.RecordTXT, Name: "_amazonses.example.com", Value: "pmbgn/7mjnfhtkuz06enqq1peguaokw8lghcfwefchu="}))

	cname := entity.DNSRecord{Type: consts.RecordCNAME, Name: "a._domainkey.example.com", Value: "a.dkim.amazonses.com."}
	require.True(t, records.Matches(cname, entity.DNSRecord{Type: consts.RecordCNAME, Name: "a._domainkey.example.com", Value: "stale.example.net."}))
}

func TestMissingSkipsSatisfiedRecords(t *testing.T) {
	plan := records.NewPlanner("us-east-1", 0).Plan("example.com", "tok", nil)
	missing := records.Missing(plan, []entity.DNSRecord{plan[1]})
	require.Len(t, missing, 3)
	for _, rec := range missing {
		require.NotEqual(t, consts.RecordMX, rec.Type)
	}
	require.Empty(t, records.Missing(plan, plan))
}

func TestFormatManualListsEveryRecord(t *testing.T) {
	plan := records.NewPlanner("us-east-1", 0).Plan("example.com", "tok", []string{"k1"})
	out := records.FormatManual(plan)
	for _, rec := range plan {
		require.Contains(t, out, rec.Name)
	}
}
