package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/dto"
	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/application/validation"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/records"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/config"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/metrics"
	"github.com/google/uuid"
)

const existingPrefix = "Domain already exists."

type ProvisionDomain struct {
	cfg        *config.ProvisionConfig
	repo       interfaces.DomainRepo
	identity   interfaces.IdentityProvider
	planner    *records.Planner
	reconciler *Reconciler
	metrics    *metrics.Metrics
}

func NewProvisionDomain(
	cfg *config.ProvisionConfig, repo interfaces.DomainRepo, identity interfaces.IdentityProvider,
	reconciler *Reconciler, m *metrics.Metrics,
) *ProvisionDomain {
	return &ProvisionDomain{
		cfg:        cfg,
		repo:       repo,
		identity:   identity,
		planner:    records.NewPlanner(cfg.Region, cfg.RecordTTL),
		reconciler: reconciler,
		metrics:    m,
	}
}

// Execute registers name for userID, or reconciles it when userID already
// owns it. Only invalid names, foreign ownership, a failed ownership
// verification for a new domain and persistence errors are returned as errors.
func (c *ProvisionDomain) Execute(ctx context.Context, userID, name string) (*dto.ProvisioningOutcome, error) {
	name, err := validation.ValidateDomain(name)
	if err != nil {
		return nil, err
	}

	existing, err := c.repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return c.reconcileExisting(ctx, userID, existing)
	case errors.Is(err, errs.ErrDomainNotFound):
		return c.provisionNew(ctx, userID, name)
	default:
		return nil, err
	}
}

func (c *ProvisionDomain) provisionNew(ctx context.Context, userID, name string) (*dto.ProvisioningOutcome, error) {
	var notes []string

	token, err := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) (string, error) {
		return c.identity.VerifyDomain(ctx, name)
	})
	if err != nil {
		slog.Error("domain verification failed", "domain", name, "err", err)
		c.metrics.Provision("new", "error")
		return nil, fmt.Errorf("verify domain %s: %w", name, err)
	}

	signing, err := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) ([]string, error) {
		return c.identity.EnableSigning(ctx, name)
	})
	if err != nil {
		notes = append(notes, c.signingFailed(name, err))
		signing = nil
	}

	configurationSet, err := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) (string, error) {
		return c.identity.CreateSendingContext(ctx, name)
	})
	if err != nil {
		c.degraded(name, "sending_context", err)
		notes = append(notes, "Configuration set could not be created; it will be retried on the next request.")
		configurationSet = ""
	}

	planned := c.planner.Plan(name, token, signing)
	created, instructions := c.reconciler.Reconcile(ctx, name, planned)

	now := time.Now()
	domain := &entity.Domain{
		ID:                uuid.New(),
		UserID:            userID,
		Name:              name,
		Status:            consts.DomainStatusPending,
		VerificationToken: token,
		ConfigurationSet:  configurationSet,
		DkimTokens:        signing,
		DNSRecords:        planned,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err = c.repo.Insert(ctx, domain); err != nil {
		if !errors.Is(err, errs.ErrDomainExists) {
			c.metrics.Provision("new", "error")
			return nil, err
		}
		slog.Info("domain inserted concurrently, reconciling", "domain", name)
		existing, err := c.repo.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return c.reconcileExisting(ctx, userID, existing)
	}

	slog.Info("domain provisioned", "domain", name, "user", userID, "records", len(planned), "created", len(created))
	c.metrics.Provision("new", "ok")
	return newOutcome(domain, planned, created, joinNotes(append(notes, instructions)...)), nil
}

func (c *ProvisionDomain) reconcileExisting(ctx context.Context, userID string, d *entity.Domain) (*dto.ProvisioningOutcome, error) {
	if !d.OwnedBy(userID) {
		c.metrics.Provision("existing", "forbidden")
		return nil, errs.ErrDomainOwnedByAnotherUser
	}

	var (
		notes  []string
		update interfaces.DomainUpdate
	)
	token := d.VerificationToken

	status, err := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) (consts.VerificationStatus, error) {
		return c.identity.GetVerificationStatus(ctx, d.Name)
	})
	switch {
	case err == nil:
		if mapped := status.ToDomainStatus(); mapped != d.Status {
			update.Status = &mapped
		}
	case errors.Is(err, errs.ErrIdentityNotFound):
		fresh, verr := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) (string, error) {
			return c.identity.VerifyDomain(ctx, d.Name)
		})
		if verr != nil {
			c.degraded(d.Name, "reverify", verr)
			notes = append(notes, "Domain identity is missing at the provider and could not be re-registered; the stored verification token was kept.")
			break
		}
		slog.Info("identity was missing, re-registered", "domain", d.Name)
		pending := consts.DomainStatusPending
		update.Status = &pending
		if fresh != token {
			token = fresh
			update.VerificationToken = &token
		}
	default:
		c.degraded(d.Name, "verification_status", err)
	}

	// The provider is authoritative for signing tokens; the stored ones are
	// only used when it cannot be reached.
	signing, err := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) ([]string, error) {
		return c.identity.GetSigningTokens(ctx, d.Name)
	})
	if err != nil {
		c.degraded(d.Name, "signing_tokens", err)
		signing = d.DkimTokens
	}
	if len(signing) == 0 {
		enabled, err := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) ([]string, error) {
			return c.identity.EnableSigning(ctx, d.Name)
		})
		if err != nil {
			notes = append(notes, c.signingFailed(d.Name, err))
			enabled = nil
		}
		signing = enabled
	}
	if !slices.Equal(signing, d.DkimTokens) {
		update.DkimTokens = append([]string{}, signing...)
	}

	configurationSet := d.ConfigurationSet
	if configurationSet == "" {
		name, err := withTimeout(ctx, c.cfg.CallTimeout, func(ctx context.Context) (string, error) {
			return c.identity.CreateSendingContext(ctx, d.Name)
		})
		if err != nil {
			c.degraded(d.Name, "sending_context", err)
			notes = append(notes, "Configuration set could not be created; it will be retried on the next request.")
		} else {
			configurationSet = name
			update.ConfigurationSet = &configurationSet
		}
	}

	planned := c.planner.Plan(d.Name, token, signing)
	created, instructions := c.reconciler.Reconcile(ctx, d.Name, planned)

	update.DNSRecords = planned
	if err = c.repo.UpdateFields(ctx, d.ID, update); err != nil {
		c.metrics.Provision("existing", "error")
		return nil, err
	}
	applyUpdate(d, update)

	slog.Info("domain reconciled", "domain", d.Name, "user", userID, "records", len(planned), "created", len(created))
	c.metrics.Provision("existing", "ok")
	return newOutcome(d, planned, created, joinNotes(append([]string{existingPrefix}, append(notes, instructions)...)...)), nil
}

func (c *ProvisionDomain) degraded(domain, step string, err error) {
	slog.Warn("provisioning step failed, continuing", "domain", domain, "step", step, "err", err)
	c.metrics.Degraded(step)
}

// signingFailed records a failed EnableSigning call and returns the advisory
// line for the outcome.
func (c *ProvisionDomain) signingFailed(domain string, err error) string {
	var denied errs.PermissionsError
	if errors.As(err, &denied) {
		slog.Error("not permitted to enable DKIM signing", "domain", domain, "err", err)
		c.metrics.Degraded("enable_signing_denied")
		return "DKIM signing is not permitted for the relay's sending account; ask an operator to allow it, then run the request again."
	}
	c.degraded(domain, "enable_signing", err)
	return "DKIM signing could not be enabled; run the request again later to add signing records."
}

func applyUpdate(d *entity.Domain, u interfaces.DomainUpdate) {
	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.VerificationToken != nil {
		d.VerificationToken = *u.VerificationToken
	}
	if u.ConfigurationSet != nil {
		d.ConfigurationSet = *u.ConfigurationSet
	}
	if u.DkimTokens != nil {
		d.DkimTokens = u.DkimTokens
	}
	if u.DNSRecords != nil {
		d.DNSRecords = u.DNSRecords
	}
	d.UpdatedAt = time.Now()
}

func newOutcome(d *entity.Domain, planned, created []entity.DNSRecord, instructions string) *dto.ProvisioningOutcome {
	return &dto.ProvisioningOutcome{
		Domain:           dto.NewDomainResponse(d),
		DNSRecords:       planned,
		ConfigurationSet: d.ConfigurationSet,
		CreatedRecords:   created,
		Instructions:     instructions,
	}
}

func joinNotes(notes ...string) string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, "\n")
}
