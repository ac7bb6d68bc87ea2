// Package stubs holds in-memory collaborators for command and handler tests.
package stubs

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/records"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MemoryRepo is a DomainRepo backed by a map.
type MemoryRepo struct {
	mu      sync.Mutex
	domains map[uuid.UUID]entity.Domain
	Inserts int
	Updates int
}

var _ interfaces.DomainRepo = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{domains: make(map[uuid.UUID]entity.Domain)}
}

// Seed stores d without counting it as an insert.
func (r *MemoryRepo) Seed(d entity.Domain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains[d.ID] = d
}

func (r *MemoryRepo) Insert(_ context.Context, d *entity.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.domains {
		if existing.Name == d.Name {
			return fmt.Errorf("%w: %s", errs.ErrDomainExists, d.Name)
		}
	}
	r.Inserts++
	r.domains[d.ID] = *d
	return nil
}

func (r *MemoryRepo) UpdateFields(_ context.Context, id uuid.UUID, u interfaces.DomainUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.domains[id]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrDomainNotFound, id)
	}
	if u.IsEmpty() {
		return nil
	}
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
		d.DkimTokens = slices.Clone(u.DkimTokens)
	}
	if u.DNSRecords != nil {
		d.DNSRecords = slices.Clone(u.DNSRecords)
	}
	d.UpdatedAt = time.Now()
	r.domains[id] = d
	r.Updates++
	return nil
}

func (r *MemoryRepo) FindByName(_ context.Context, name string) (*entity.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.domains {
		if d.Name == name {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errs.ErrDomainNotFound, name)
}

func (r *MemoryRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.domains[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrDomainNotFound, id)
	}
	return &d, nil
}

func (r *MemoryRepo) ListPending(_ context.Context) ([]entity.Domain, error) {
	return r.filter(func(d entity.Domain) bool { return d.Status == consts.DomainStatusPending }), nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID string) ([]entity.Domain, error) {
	return r.filter(func(d entity.Domain) bool { return d.UserID == userID }), nil
}

func (r *MemoryRepo) filter(keep func(entity.Domain) bool) []entity.Domain {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Domain
	for _, d := range r.domains {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MemoryRegistrar remembers created records, so reconciling twice creates nothing new.
type MemoryRegistrar struct {
	mu      sync.Mutex
	zones   []string
	records map[string][]entity.RegistrarRecord
	// Calls counts every registrar operation.
	Calls int
	// FailCreate makes CreateRecord fail for records of this type.
	FailCreate consts.RecordType
	// ListErr is returned from ListZones when set.
	ListErr error
}

var _ interfaces.Registrar = (*MemoryRegistrar)(nil)

func NewMemoryRegistrar(zones ...string) *MemoryRegistrar {
	return &MemoryRegistrar{zones: zones, records: make(map[string][]entity.RegistrarRecord)}
}

// Preload adds rec to zone without counting a call.
func (m *MemoryRegistrar) Preload(zone string, rec entity.DNSRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[zone] = append(m.records[zone], entity.RegistrarRecord{
		ID: strconv.Itoa(len(m.records[zone]) + 1), Zone: zone, Record: rec,
	})
}

func (m *MemoryRegistrar) Records(zone string) []entity.RegistrarRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records[zone])
}

func (m *MemoryRegistrar) Name() string  { return "memory" }
func (m *MemoryRegistrar) Enabled() bool { return true }

func (m *MemoryRegistrar) ListZones(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return slices.Clone(m.zones), nil
}

func (m *MemoryRegistrar) ListRecords(_ context.Context, zone string) ([]entity.RegistrarRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return slices.Clone(m.records[zone]), nil
}

func (m *MemoryRegistrar) CreateRecord(_ context.Context, zone string, rec entity.DNSRecord) (entity.RegistrarRecord, consts.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.FailCreate != "" && strings.EqualFold(string(rec.Type), string(m.FailCreate)) {
		return entity.RegistrarRecord{}, consts.FatalFailure, fmt.Errorf("create %s %s: rejected", rec.Type, rec.Name)
	}
	for _, existing := range m.records[zone] {
		if records.Matches(rec, existing.Record) {
			return existing, consts.AlreadyExists, nil
		}
	}
	created := entity.RegistrarRecord{ID: strconv.Itoa(len(m.records[zone]) + 1), Zone: zone, Record: rec}
	m.records[zone] = append(m.records[zone], created)
	return created, consts.Created, nil
}

// IdentityMock is a testify mock of the identity provider.
type IdentityMock struct {
	mock.Mock
}

var _ interfaces.IdentityProvider = (*IdentityMock)(nil)

func (m *IdentityMock) VerifyDomain(ctx context.Context, domain string) (string, error) {
	args := m.Called(ctx, domain)
	return args.String(0), args.Error(1)
}

func (m *IdentityMock) EnableSigning(ctx context.Context, domain string) ([]string, error) {
	args := m.Called(ctx, domain)
	tokens, _ := args.Get(0).([]string)
	return tokens, args.Error(1)
}

func (m *IdentityMock) GetVerificationStatus(ctx context.Context, domain string) (consts.VerificationStatus, error) {
	args := m.Called(ctx, domain)
	return args.Get(0).(consts.VerificationStatus), args.Error(1)
}

func (m *IdentityMock) GetSigningTokens(ctx context.Context, domain string) ([]string, error) {
	args := m.Called(ctx, domain)
	tokens, _ := args.Get(0).([]string)
	return tokens, args.Error(1)
}

func (m *IdentityMock) CreateSendingContext(ctx context.Context, domain string) (string, error) {
	args := m.Called(ctx, domain)
	return args.String(0), args.Error(1)
}
