package classify_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/classify"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
	"github.com/digitalocean/godo"
	"github.com/stretchr/testify/require"
)

func doError(status int, message string) error {
	return &godo.ErrorResponse{
		Response: &http.Response{
			StatusCode: status,
			Request:    httptest.NewRequest(http.MethodPost, "/v2/domains/example.com/records", nil),
		},
		Message: message,
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want consts.Outcome
	}{
		{"nil", nil, consts.Created},
		{"do rate limit", doError(http.StatusTooManyRequests, "too many requests"), consts.TransientFailure},
		{"do conflict", doError(http.StatusConflict, "conflict"), consts.AlreadyExists},
		{"do duplicate message", doError(http.StatusUnprocessableEntity, "Record already exists"), consts.AlreadyExists},
		{"do unauthorized", doError(http.StatusUnauthorized, "Unable to authenticate you"), consts.FatalFailure},
		{"ses config set exists", &types.ConfigurationSetAlreadyExistsException{Message: aws.String("exists")}, consts.AlreadyExists},
		{"aws throttling", &smithy.GenericAPIError{Code: "Throttling", Message: "Rate exceeded"}, consts.TransientFailure},
		{"route53 duplicate", &smithy.GenericAPIError{Code: "InvalidChangeBatch", Message: "but it already exists"}, consts.AlreadyExists},
		{"wrapped", fmt.Errorf("create: %w", doError(http.StatusTooManyRequests, "slow down")), consts.TransientFailure},
		{"deadline", context.DeadlineExceeded, consts.FatalFailure},
		{"plain", errors.New("connection reset by peer"), consts.FatalFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, classify.Classify(tc.err))
		})
	}
}

func TestHelpers(t *testing.T) {
	require.True(t, classify.IsRateLimited(doError(http.StatusTooManyRequests, "")))
	require.False(t, classify.IsRateLimited(doError(http.StatusInternalServerError, "")))
	require.True(t, classify.IsAlreadyExists(&types.ConfigurationSetAlreadyExistsException{}))
	require.True(t, classify.IsAccessDenied(fmt.Errorf("dkim: %w", &smithy.GenericAPIError{Code: "AccessDenied"})))
	require.True(t, classify.IsAccessDenied(doError(http.StatusForbidden, "")))
	require.False(t, classify.IsAccessDenied(&smithy.GenericAPIError{Code: "Throttling"}))
	require.False(t, classify.IsAccessDenied(nil))
}

func TestIsNotFound(t *testing.T) {
	require.True(t, classify.IsNotFound(doError(http.StatusNotFound, "The resource you were accessing could not be found.")))
	require.True(t, classify.IsNotFound(&smithy.GenericAPIError{Code: "NoSuchHostedZone"}))
	require.False(t, classify.IsNotFound(nil))
	require.False(t, classify.IsNotFound(doError(http.StatusTooManyRequests, "slow down")))
}
