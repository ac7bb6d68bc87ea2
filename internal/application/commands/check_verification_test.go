package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Builder-Lawyers/mail-relay/internal/application/commands"
	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/entity"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/metrics"
	"github.com/Builder-Lawyers/mail-relay/internal/testinfra/stubs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCheckVerificationMapsStatusAndWritesOnlyOnChange(t *testing.T) {
	cases := []struct {
		name     string
		stored   consts.DomainStatus
		provider consts.VerificationStatus
		want     consts.DomainStatus
		writes   int
	}{
		{"success verifies", consts.DomainStatusPending, consts.VerificationSuccess, consts.DomainStatusVerified, 1},
		{"failed fails", consts.DomainStatusPending, consts.VerificationFailed, consts.DomainStatusFailed, 1},
		{"pending stays", consts.DomainStatusPending, consts.VerificationPending, consts.DomainStatusPending, 0},
		{"not started stays pending", consts.DomainStatusPending, consts.VerificationNotStarted, consts.DomainStatusPending, 0},
		{"temporary failure stays pending", consts.DomainStatusPending, consts.VerificationTemporaryFailure, consts.DomainStatusPending, 0},
		{"already verified", consts.DomainStatusVerified, consts.VerificationSuccess, consts.DomainStatusVerified, 0},
		{"verified falls back to pending", consts.DomainStatusVerified, consts.VerificationPending, consts.DomainStatusPending, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := stubs.NewMemoryRepo()
			identity := &stubs.IdentityMock{}
			id := uuid.New()
			repo.Seed(entity.Domain{ID: id, UserID: "u1", Name: "example.com", Status: tc.stored})
			identity.On("GetVerificationStatus", mock.Anything, "example.com").Return(tc.provider, nil)

			cmd := commands.NewCheckVerification(testConfig(), repo, identity, metrics.New())
			got, err := cmd.Execute(context.Background(), id)

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.writes, repo.Updates)
			stored, err := repo.FindByID(context.Background(), id)
			require.NoError(t, err)
			require.Equal(t, tc.want, stored.Status)
		})
	}
}

func TestCheckVerificationUnknownDomain(t *testing.T) {
	cmd := commands.NewCheckVerification(testConfig(), stubs.NewMemoryRepo(), &stubs.IdentityMock{}, metrics.New())

	_, err := cmd.Execute(context.Background(), uuid.New())

	require.ErrorIs(t, err, errs.ErrDomainNotFound)
}

func TestRefreshAllPendingIsolatesFailures(t *testing.T) {
	repo := stubs.NewMemoryRepo()
	identity := &stubs.IdentityMock{}
	for _, name := range []string{"a.example.com", "b.example.com", "c.example.com"} {
		repo.Seed(entity.Domain{ID: uuid.New(), UserID: "u1", Name: name, Status: consts.DomainStatusPending})
	}
	repo.Seed(entity.Domain{ID: uuid.New(), UserID: "u1", Name: "done.example.com", Status: consts.DomainStatusVerified})
	identity.On("GetVerificationStatus", mock.Anything, "a.example.com").Return(consts.VerificationSuccess, nil)
	identity.On("GetVerificationStatus", mock.Anything, "b.example.com").
		Return(consts.VerificationStatus(""), errs.NewProviderError("ses", "GetIdentityVerificationAttributes", errors.New("timeout")))
	identity.On("GetVerificationStatus", mock.Anything, "c.example.com").Return(consts.VerificationFailed, nil)

	cmd := commands.NewCheckVerification(testConfig(), repo, identity, metrics.New())
	summary, err := cmd.RefreshAllPending(context.Background())

	require.NoError(t, err)
	require.Equal(t, 3, summary.Checked)
	require.Equal(t, 1, summary.Verified)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 1, summary.Errors)
	identity.AssertNotCalled(t, "GetVerificationStatus", mock.Anything, "done.example.com")

	pending, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "b.example.com", pending[0].Name)
}

func TestRefreshAllPendingStopsOnCancelledContext(t *testing.T) {
	repo := stubs.NewMemoryRepo()
	repo.Seed(entity.Domain{ID: uuid.New(), UserID: "u1", Name: "a.example.com", Status: consts.DomainStatusPending})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := commands.NewCheckVerification(testConfig(), repo, &stubs.IdentityMock{}, metrics.New())
	summary, err := cmd.RefreshAllPending(ctx)

	require.Error(t, err)
	require.Zero(t, summary.Checked)
}
