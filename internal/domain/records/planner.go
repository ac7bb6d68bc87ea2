// Package records derives the DNS records a sending domain needs. The
// output is a cached view: it can always be rebuilt from the domain name,
// the ownership token and the DKIM tokens.
package records

import (
	"fmt"
	"strings"

	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
)

const (
	DefaultTTL = 1800

	ownershipLabel = "_amazonses"
	dmarcLabel     = "_dmarc"
	spfInclude     = "amazonses.com"
	dkimDomain     = "dkim.amazonses.com"
	mxPriority     = 10
)

type Planner struct {
	Region string
	TTL    int
}

func NewPlanner(region string, ttl int) *Planner {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Planner{Region: region, TTL: ttl}
}

// Plan returns ownership TXT, inbound MX, SPF TXT, DMARC TXT, then one
// CNAME per signing token, in that order.
func (p *Planner) Plan(domain, verificationToken string, signingTokens []string) []entity.DNSRecord {
	out := make([]entity.DNSRecord, 0, 4+len(signingTokens))
	out = append(out,
		entity.DNSRecord{
			Type:        consts.RecordTXT,
			Name:        ownershipLabel + "." + domain,
			Value:       verificationToken,
			TTL:         p.TTL,
			Description: "Domain ownership verification",
		},
		entity.DNSRecord{
			Type:        consts.RecordMX,
			Name:        domain,
			Value:       fmt.Sprintf("%d %s.", mxPriority, p.inboundHost()),
			TTL:         p.TTL,
			Description: "Inbound mail routing",
		},
		entity.DNSRecord{
			Type:        consts.RecordTXT,
			Name:        domain,
			Value:       "v=spf1 include:" + spfInclude + " ~all",
			TTL:         p.TTL,
			Description: "SPF sender policy",
		},
		entity.DNSRecord{
			Type:        consts.RecordTXT,
			Name:        dmarcLabel + "." + domain,
			Value:       "v=DMARC1; p=quarantine; rua=mailto:dmarc@" + domain,
			TTL:         p.TTL,
			Description: "DMARC policy",
		},
	)
	for _, token := range signingTokens {
		out = append(out, entity.DNSRecord{
			Type:        consts.RecordCNAME,
			Name:        token + "._domainkey." + domain,
			Value:       token + "." + dkimDomain + ".",
			TTL:         p.TTL,
			Description: "DKIM signing key",
		})
	}
	return out
}

func (p *Planner) inboundHost() string {
	return "inbound-smtp." + p.Region + ".amazonaws.com"
}

// Matches reports whether existing satisfies planned. CNAMEs are compared by
// type and name only since a name can hold a single CNAME.
func Matches(planned, existing entity.DNSRecord) bool {
	if !strings.EqualFold(string(planned.Type), string(existing.Type)) {
		return false
	}
	if normalize(planned.Name) != normalize(existing.Name) {
		return false
	}
	if planned.Type == consts.RecordCNAME {
		return true
	}
	return normalizeValue(planned.Type, planned.Value) == normalizeValue(planned.Type, existing.Value)
}

// Missing returns the planned records not satisfied by any existing record.
func Missing(planned, existing []entity.DNSRecord) []entity.DNSRecord {
	var out []entity.DNSRecord
	for _, p := range planned {
		found := false
		for _, e := range existing {
			if Matches(p, e) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, p)
		}
	}
	return out
}

func normalize(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// normalizeValue folds hostnames in MX and CNAME data. TXT data is compared
// as is once the zone-file quoting is removed, since tokens are case-sensitive.
func normalizeValue(recordType consts.RecordType, value string) string {
	v := strings.TrimSpace(value)
	if recordType == consts.RecordTXT {
		if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
			v = strings.ReplaceAll(v[1:len(v)-1], `\"`, `"`)
		}
		return v
	}
	fields := strings.Fields(v)
	for i, f := range fields {
		fields[i] = strings.TrimSuffix(f, ".")
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// FormatManual renders records as a block the user can copy into any DNS host.
func FormatManual(recs []entity.DNSRecord) string {
	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "%-5s %s -> %s (TTL %d) # %s\n", r.Type, r.Name, r.Value, r.TTL, r.Description)
	}
	return b.String()
}
