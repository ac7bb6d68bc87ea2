package dns

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
)

const apex = "@"

// FindZone returns the most specific registrar zone that contains domain.
func FindZone(ctx context.Context, r interfaces.Registrar, domain string) (string, bool, error) {
	zones, err := r.ListZones(ctx)
	if err != nil {
		return "", false, err
	}
	domain = normalizeName(domain)
	best := ""
	for _, z := range zones {
		z = normalizeName(z)
		if (domain == z || strings.HasSuffix(domain, "."+z)) && len(z) > len(best) {
			best = z
		}
	}
	return best, best != "", nil
}

func ZoneContainsDomain(ctx context.Context, r interfaces.Registrar, domain string) (bool, error) {
	_, ok, err := FindZone(ctx, r, domain)
	return ok, err
}

// relativeName converts an absolute name into the zone-relative form with
// "@" for the apex.
func relativeName(name, zone string) string {
	name = normalizeName(name)
	zone = normalizeName(zone)
	if name == zone {
		return apex
	}
	return strings.TrimSuffix(name, "."+zone)
}

func absoluteName(name, zone string) string {
	zone = normalizeName(zone)
	switch {
	case name == apex || name == "":
		return zone
	case strings.HasSuffix(name, "."):
		return normalizeName(name)
	default:
		return normalizeName(name) + "." + zone
	}
}

func normalizeName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

func ensureTrailingDot(host string) string {
	if strings.HasSuffix(host, ".") {
		return host
	}
	return host + "."
}

// splitMX parses "priority host" into its parts.
func splitMX(value string) (int, string, error) {
	fields := strings.Fields(value)
	switch len(fields) {
	case 1:
		return 10, fields[0], nil
	case 2:
		priority, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, "", fmt.Errorf("invalid MX priority %q: %w", fields[0], err)
		}
		return priority, fields[1], nil
	default:
		return 0, "", fmt.Errorf("invalid MX value %q", value)
	}
}
