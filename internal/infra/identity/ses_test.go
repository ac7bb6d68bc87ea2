package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/identity"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sesMock struct {
	mock.Mock
}

func (m *sesMock) VerifyDomainIdentity(ctx context.Context, in *ses.VerifyDomainIdentityInput, _ ...func(*ses.Options)) (*ses.VerifyDomainIdentityOutput, error) {
	args := m.Called(aws.ToString(in.Domain))
	out, _ := args.Get(0).(*ses.VerifyDomainIdentityOutput)
	return out, args.Error(1)
}

func (m *sesMock) VerifyDomainDkim(ctx context.Context, in *ses.VerifyDomainDkimInput, _ ...func(*ses.Options)) (*ses.VerifyDomainDkimOutput, error) {
	args := m.Called(aws.ToString(in.Domain))
	out, _ := args.Get(0).(*ses.VerifyDomainDkimOutput)
	return out, args.Error(1)
}

func (m *sesMock) GetIdentityVerificationAttributes(ctx context.Context, in *ses.GetIdentityVerificationAttributesInput, _ ...func(*ses.Options)) (*ses.GetIdentityVerificationAttributesOutput, error) {
	args := m.Called(in.Identities)
	out, _ := args.Get(0).(*ses.GetIdentityVerificationAttributesOutput)
	return out, args.Error(1)
}

func (m *sesMock) GetIdentityDkimAttributes(ctx context.Context, in *ses.GetIdentityDkimAttributesInput, _ ...func(*ses.Options)) (*ses.GetIdentityDkimAttributesOutput, error) {
	args := m.Called(in.Identities)
	out, _ := args.Get(0).(*ses.GetIdentityDkimAttributesOutput)
	return out, args.Error(1)
}

func (m *sesMock) CreateConfigurationSet(ctx context.Context, in *ses.CreateConfigurationSetInput, _ ...func(*ses.Options)) (*ses.CreateConfigurationSetOutput, error) {
	args := m.Called(aws.ToString(in.ConfigurationSet.Name))
	out, _ := args.Get(0).(*ses.CreateConfigurationSetOutput)
	return out, args.Error(1)
}

func TestVerifyDomainReturnsToken(t *testing.T) {
	client := new(sesMock)
	client.On("VerifyDomainIdentity", "example.com").
		Return(&ses.VerifyDomainIdentityOutput{VerificationToken: aws.String("tok-123")}, nil).Twice()
	SUT := identity.NewSESIdentityFromClient(client)

	for i := 0; i < 2; i++ {
		token, err := SUT.VerifyDomain(context.Background(), "example.com")
		require.NoError(t, err)
		require.Equal(t, "tok-123", token)
	}
	client.AssertExpectations(t)
}

func TestVerifyDomainWrapsProviderError(t *testing.T) {
	client := new(sesMock)
	client.On("VerifyDomainIdentity", "example.com").Return(nil, errors.New("AccessDenied"))
	SUT := identity.NewSESIdentityFromClient(client)

	_, err := SUT.VerifyDomain(context.Background(), "example.com")
	var pe *errs.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "VerifyDomainIdentity", pe.Op)
}

func TestGetVerificationStatus(t *testing.T) {
	client := new(sesMock)
	client.On("GetIdentityVerificationAttributes", []string{"example.com"}).Return(&ses.GetIdentityVerificationAttributesOutput{
		VerificationAttributes: map[string]types.IdentityVerificationAttributes{
			"example.com": {VerificationStatus: types.VerificationStatusSuccess},
		},
	}, nil)
	client.On("GetIdentityVerificationAttributes", []string{"gone.com"}).Return(&ses.GetIdentityVerificationAttributesOutput{
		VerificationAttributes: map[string]types.IdentityVerificationAttributes{},
	}, nil)
	SUT := identity.NewSESIdentityFromClient(client)

	status, err := SUT.GetVerificationStatus(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, consts.VerificationSuccess, status)

	_, err = SUT.GetVerificationStatus(context.Background(), "gone.com")
	require.ErrorIs(t, err, errs.ErrIdentityNotFound)
}

func TestGetSigningTokensEmptyWhenNeverEnabled(t *testing.T) {
	client := new(sesMock)
	client.On("GetIdentityDkimAttributes", []string{"example.com"}).Return(&ses.GetIdentityDkimAttributesOutput{
		DkimAttributes: map[string]types.IdentityDkimAttributes{},
	}, nil)
	SUT := identity.NewSESIdentityFromClient(client)

	tokens, err := SUT.GetSigningTokens(context.Background(), "example.com")
	require.NoError(t, err)
	require.Empty(t, tokens)
}

func TestCreateSendingContextIsIdempotent(t *testing.T) {
	client := new(sesMock)
	client.On("CreateConfigurationSet", "mail-example-com").Return(&ses.CreateConfigurationSetOutput{}, nil).Once()
	client.On("CreateConfigurationSet", "mail-example-com").
		Return(nil, &types.ConfigurationSetAlreadyExistsException{Message: aws.String("already exists")}).Once()
	SUT := identity.NewSESIdentityFromClient(client)

	for i := 0; i < 2; i++ {
		name, err := SUT.CreateSendingContext(context.Background(), "mail.example.com")
		require.NoError(t, err)
		require.Equal(t, "mail-example-com", name)
	}
	client.AssertExpectations(t)
}

func TestCreateSendingContextFailure(t *testing.T) {
	client := new(sesMock)
	client.On("CreateConfigurationSet", "example-com").Return(nil, errors.New("AccessDenied"))
	SUT := identity.NewSESIdentityFromClient(client)

	_, err := SUT.CreateSendingContext(context.Background(), "example.com")
	require.Error(t, err)
}

func TestEnableSigningReturnsTokens(t *testing.T) {
	client := new(sesMock)
	client.On("VerifyDomainDkim", "example.com").
		Return(&ses.VerifyDomainDkimOutput{DkimTokens: []string{"k1", "k2", "k3"}}, nil)
	SUT := identity.NewSESIdentityFromClient(client)

	tokens, err := SUT.EnableSigning(context.Background(), "example.com")

	require.NoError(t, err)
	require.Equal(t, []string{"k1", "k2", "k3"}, tokens)
}

func TestEnableSigningAccessDeniedIsPermissionsError(t *testing.T) {
	client := new(sesMock)
	client.On("VerifyDomainDkim", "example.com").
		Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized to perform ses:VerifyDomainDkim"})
	SUT := identity.NewSESIdentityFromClient(client)

	_, err := SUT.EnableSigning(context.Background(), "example.com")

	var denied errs.PermissionsError
	require.ErrorAs(t, err, &denied)
	var providerErr *errs.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, "VerifyDomainDkim", providerErr.Op)
}

func TestEnableSigningOtherFailureIsProviderError(t *testing.T) {
	client := new(sesMock)
	client.On("VerifyDomainDkim", "example.com").Return(nil, errors.New("connection reset"))
	SUT := identity.NewSESIdentityFromClient(client)

	_, err := SUT.EnableSigning(context.Background(), "example.com")

	var denied errs.PermissionsError
	require.False(t, errors.As(err, &denied))
	var providerErr *errs.ProviderError
	require.ErrorAs(t, err, &providerErr)
}
