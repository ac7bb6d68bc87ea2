package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/classify"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const providerName = "ses"

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	VerifyDomainIdentity(ctx context.Context, params *ses.VerifyDomainIdentityInput, optFns ...func(*ses.Options)) (*ses.VerifyDomainIdentityOutput, error)
	VerifyDomainDkim(ctx context.Context, params *ses.VerifyDomainDkimInput, optFns ...func(*ses.Options)) (*ses.VerifyDomainDkimOutput, error)
	GetIdentityVerificationAttributes(ctx context.Context, params *ses.GetIdentityVerificationAttributesInput, optFns ...func(*ses.Options)) (*ses.GetIdentityVerificationAttributesOutput, error)
	GetIdentityDkimAttributes(ctx context.Context, params *ses.GetIdentityDkimAttributesInput, optFns ...func(*ses.Options)) (*ses.GetIdentityDkimAttributesOutput, error)
	CreateConfigurationSet(ctx context.Context, params *ses.CreateConfigurationSetInput, optFns ...func(*ses.Options)) (*ses.CreateConfigurationSetOutput, error)
}

type SESIdentity struct {
	client SESAPI
}

func NewSESIdentity(cfg aws.Config, optFns ...func(*ses.Options)) *SESIdentity {
	return &SESIdentity{client: ses.NewFromConfig(cfg, optFns...)}
}

func NewSESIdentityFromClient(client SESAPI) *SESIdentity {
	return &SESIdentity{client: client}
}

func (s *SESIdentity) VerifyDomain(ctx context.Context, domain string) (string, error) {
	res, err := s.client.VerifyDomainIdentity(ctx, &ses.VerifyDomainIdentityInput{Domain: aws.String(domain)})
	if err != nil {
		return "", errs.NewProviderError(providerName, "VerifyDomainIdentity", err)
	}
	token := aws.ToString(res.VerificationToken)
	if token == "" {
		return "", errs.NewProviderError(providerName, "VerifyDomainIdentity", fmt.Errorf("empty verification token for %s", domain))
	}
	return token, nil
}

func (s *SESIdentity) EnableSigning(ctx context.Context, domain string) ([]string, error) {
	res, err := s.client.VerifyDomainDkim(ctx, &ses.VerifyDomainDkimInput{Domain: aws.String(domain)})
	if err != nil {
		err = errs.NewProviderError(providerName, "VerifyDomainDkim", err)
		if classify.IsAccessDenied(err) {
			return nil, errs.PermissionsError{Err: err}
		}
		return nil, err
	}
	return res.DkimTokens, nil
}

func (s *SESIdentity) GetVerificationStatus(ctx context.Context, domain string) (consts.VerificationStatus, error) {
	res, err := s.client.GetIdentityVerificationAttributes(ctx, &ses.GetIdentityVerificationAttributesInput{
		Identities: []string{domain},
	})
	if err != nil {
		return "", errs.NewProviderError(providerName, "GetIdentityVerificationAttributes", err)
	}
	attrs, ok := res.VerificationAttributes[domain]
	if !ok {
		return "", errs.NewProviderError(providerName, "GetIdentityVerificationAttributes",
			fmt.Errorf("%w: %s", errs.ErrIdentityNotFound, domain))
	}
	return mapStatus(attrs.VerificationStatus), nil
}

// GetSigningTokens returns no tokens, and no error, when DKIM was never enabled.
func (s *SESIdentity) GetSigningTokens(ctx context.Context, domain string) ([]string, error) {
	res, err := s.client.GetIdentityDkimAttributes(ctx, &ses.GetIdentityDkimAttributesInput{
		Identities: []string{domain},
	})
	if err != nil {
		if classify.IsNotFound(err) {
			return nil, nil
		}
		return nil, errs.NewProviderError(providerName, "GetIdentityDkimAttributes", err)
	}
	attrs, ok := res.DkimAttributes[domain]
	if !ok {
		return nil, nil
	}
	return attrs.DkimTokens, nil
}

// CreateSendingContext creates the configuration set for domain. An existing
// set counts as success.
func (s *SESIdentity) CreateSendingContext(ctx context.Context, domain string) (string, error) {
	name := ConfigurationSetName(domain)
	_, err := s.client.CreateConfigurationSet(ctx, &ses.CreateConfigurationSetInput{
		ConfigurationSet: &types.ConfigurationSet{Name: aws.String(name)},
	})
	switch classify.Classify(err) {
	case consts.Created:
		slog.Info("created configuration set", "domain", domain, "configurationSet", name)
		return name, nil
	case consts.AlreadyExists:
		slog.Debug("configuration set already exists", "domain", domain, "configurationSet", name)
		return name, nil
	default:
		return "", errs.NewProviderError(providerName, "CreateConfigurationSet", err)
	}
}

func ConfigurationSetName(domain string) string {
	return strings.ReplaceAll(domain, ".", "-")
}

func mapStatus(status types.VerificationStatus) consts.VerificationStatus {
	switch status {
	case types.VerificationStatusSuccess:
		return consts.VerificationSuccess
	case types.VerificationStatusFailed:
		return consts.VerificationFailed
	case types.VerificationStatusTemporaryFailure:
		return consts.VerificationTemporaryFailure
	case types.VerificationStatusNotStarted:
		return consts.VerificationNotStarted
	default:
		return consts.VerificationPending
	}
}
