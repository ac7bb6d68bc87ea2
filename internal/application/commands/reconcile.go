package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/records"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/dns"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/metrics"
)

const manualSetup = "Manual setup required: create these records at your DNS provider:\n"

// Reconciler creates the planned records that are missing at the registrar.
// It never fails; problems are reported in the returned instructions.
type Reconciler struct {
	registrar   interfaces.Registrar
	callTimeout time.Duration
	preDelay    time.Duration
	metrics     *metrics.Metrics
}

func NewReconciler(registrar interfaces.Registrar, callTimeout, preDelay time.Duration, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		registrar:   registrar,
		callTimeout: callTimeout,
		preDelay:    preDelay,
		metrics:     m,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, domain string, planned []entity.DNSRecord) ([]entity.DNSRecord, string) {
	created := []entity.DNSRecord{}
	if !r.registrar.Enabled() {
		return created, "DNS automation is not configured. " + manualSetup + records.FormatManual(planned)
	}

	r.waitPreDelay(ctx)

	zone, err := withTimeout(ctx, r.callTimeout, func(ctx context.Context) (zoneLookup, error) {
		zone, ok, err := dns.FindZone(ctx, r.registrar, domain)
		return zoneLookup{zone, ok}, err
	})
	if err != nil {
		r.degraded(domain, "list_zones", err)
		return created, fmt.Sprintf("Could not reach %s. %s%s", r.registrar.Name(), manualSetup, records.FormatManual(planned))
	}
	if !zone.ok {
		return created, fmt.Sprintf("No %s zone manages %s. %s%s", r.registrar.Name(), domain, manualSetup, records.FormatManual(planned))
	}

	existing, err := withTimeout(ctx, r.callTimeout, func(ctx context.Context) ([]entity.RegistrarRecord, error) {
		return r.registrar.ListRecords(ctx, zone.name)
	})
	if err != nil {
		r.degraded(domain, "list_records", err)
		return created, fmt.Sprintf("Could not read zone %s from %s. %s%s", zone.name, r.registrar.Name(), manualSetup, records.FormatManual(planned))
	}
	current := make([]entity.DNSRecord, 0, len(existing))
	for _, rec := range existing {
		current = append(current, rec.Record)
	}

	var failed []entity.DNSRecord
	for _, rec := range records.Missing(planned, current) {
		outcome, err := r.create(ctx, zone.name, rec)
		switch outcome {
		case consts.Created:
			created = append(created, rec)
			r.metrics.RecordCreated(r.registrar.Name(), string(rec.Type))
		case consts.AlreadyExists:
			slog.Debug("dns record already present", "domain", domain, "type", rec.Type, "name", rec.Name)
		default:
			r.degraded(domain, "create_record", err)
			failed = append(failed, rec)
		}
	}

	var b strings.Builder
	switch {
	case len(created) > 0:
		fmt.Fprintf(&b, "Created %d DNS records automatically in %s zone %s.", len(created), r.registrar.Name(), zone.name)
	case len(failed) == 0:
		fmt.Fprintf(&b, "All DNS records are already present in %s zone %s; nothing was created automatically.", r.registrar.Name(), zone.name)
	}
	if len(failed) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%d records could not be created. %s%s", len(failed), manualSetup, records.FormatManual(failed))
	}
	return created, b.String()
}

type zoneLookup struct {
	name string
	ok   bool
}

func (r *Reconciler) create(ctx context.Context, zone string, rec entity.DNSRecord) (consts.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	_, outcome, err := r.registrar.CreateRecord(ctx, zone, rec)
	return outcome, err
}

// waitPreDelay spreads concurrent provisioning runs that share a zone.
func (r *Reconciler) waitPreDelay(ctx context.Context) {
	if r.preDelay <= 0 {
		return
	}
	t := time.NewTimer(rand.N(r.preDelay))
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (r *Reconciler) degraded(domain, step string, err error) {
	slog.Warn("provisioning step failed, continuing", "domain", domain, "step", step, "err", err)
	r.metrics.Degraded(step)
}

func withTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
