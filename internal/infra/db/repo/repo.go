package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/db"
	shared "github.com/Builder-Lawyers/mail-relay/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"
	domainColumns   = "id, user_id, name, status, verification_token, configuration_set, dkim_tokens, dns_records, smtp_credentials, created_at, updated_at"
)

type DomainRepo struct {
	q shared.Querier
}

var _ interfaces.DomainRepo = (*DomainRepo)(nil)

// NewDomainRepo accepts a pool for single statements or a pgx.Tx inside a unit of work.
func NewDomainRepo(q shared.Querier) *DomainRepo {
	return &DomainRepo{q: q}
}

func (r *DomainRepo) Insert(ctx context.Context, domain *entity.Domain) error {
	model, err := db.MapDomainToModel(domain)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, "INSERT INTO relay.domains("+domainColumns+") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)",
		model.ID, model.UserID, model.Name, model.Status, model.VerificationToken, model.ConfigurationSet,
		model.DkimTokens, model.DNSRecords, model.SMTPCredentials, model.CreatedAt, model.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", errs.ErrDomainExists, domain.Name)
		}
		return fmt.Errorf("err inserting domain, %v", err)
	}
	return nil
}

// UpdateFields writes only the fields set in update, in a single statement.
func (r *DomainRepo) UpdateFields(ctx context.Context, id uuid.UUID, update interfaces.DomainUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.VerificationToken != nil {
		add("verification_token", *update.VerificationToken)
	}
	if update.ConfigurationSet != nil {
		add("configuration_set", *update.ConfigurationSet)
	}
	if update.DkimTokens != nil {
		raw, err := db.MarshalJSONList(update.DkimTokens)
		if err != nil {
			return err
		}
		add("dkim_tokens", raw)
	}
	if update.DNSRecords != nil {
		raw, err := db.MarshalJSONList(update.DNSRecords)
		if err != nil {
			return err
		}
		add("dns_records", raw)
	}
	add("updated_at", time.Now())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE relay.domains SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("err updating domain, %v", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", errs.ErrDomainNotFound, id)
	}
	return nil
}

func (r *DomainRepo) FindByName(ctx context.Context, name string) (*entity.Domain, error) {
	row := r.q.QueryRow(ctx, "SELECT "+domainColumns+" FROM relay.domains WHERE name = $1", name)
	return scanDomain(row, name)
}

func (r *DomainRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Domain, error) {
	row := r.q.QueryRow(ctx, "SELECT "+domainColumns+" FROM relay.domains WHERE id = $1", id)
	return scanDomain(row, id.String())
}

func (r *DomainRepo) ListPending(ctx context.Context) ([]entity.Domain, error) {
	return r.list(ctx, "SELECT "+domainColumns+" FROM relay.domains WHERE status = $1 ORDER BY created_at", consts.DomainStatusPending)
}

func (r *DomainRepo) ListByUser(ctx context.Context, userID string) ([]entity.Domain, error) {
	return r.list(ctx, "SELECT "+domainColumns+" FROM relay.domains WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

// Delete removes the domain together with its API keys. Call it on a tx.
func (r *DomainRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.q.Exec(ctx, "DELETE FROM relay.api_keys WHERE domain_id = $1", id); err != nil {
		return fmt.Errorf("err deleting api keys, %v", err)
	}
	tag, err := r.q.Exec(ctx, "DELETE FROM relay.domains WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("err deleting domain, %v", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", errs.ErrDomainNotFound, id)
	}
	return nil
}

func (r *DomainRepo) list(ctx context.Context, query string, args ...any) ([]entity.Domain, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("err listing domains, %v", err)
	}
	defer rows.Close()

	var out []entity.Domain
	for rows.Next() {
		d, err := scanDomain(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("err reading domains, %v", err)
	}
	return out, nil
}

func scanDomain(row pgx.Row, key string) (*entity.Domain, error) {
	var m db.Domain
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Status, &m.VerificationToken, &m.ConfigurationSet,
		&m.DkimTokens, &m.DNSRecords, &m.SMTPCredentials, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", errs.ErrDomainNotFound, key)
		}
		return nil, fmt.Errorf("err scanning domain, %v", err)
	}
	return db.MapModelToDomain(m)
}
