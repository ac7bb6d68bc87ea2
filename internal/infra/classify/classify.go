// Package classify turns provider SDK errors into a consts.Outcome so callers
// never inspect raw error text.
package classify

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Builder-Lawyers/mail-relay/internal/domain/consts"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
	"github.com/digitalocean/godo"
)

var alreadyExistsCodes = map[string]struct{}{
	"AlreadyExists":                  {},
	"AlreadyExistsException":         {},
	"ConfigurationSetAlreadyExists":  {},
	"EntityAlreadyExists":            {},
	"HostedZoneAlreadyExists":        {},
	"ResourceRecordSetAlreadyExists": {},
}

var throttlingCodes = map[string]struct{}{
	"Throttling":               {},
	"ThrottlingException":      {},
	"TooManyRequestsException": {},
	"PriorRequestNotComplete":  {},
	"RequestLimitExceeded":     {},
	"LimitExceededException":   {},
}

// Classify maps err onto Created (nil error), AlreadyExists,
// TransientFailure (rate limiting) or FatalFailure.
func Classify(err error) consts.Outcome {
	if err == nil {
		return consts.Created
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return consts.FatalFailure
	}

	var cfgExists *types.ConfigurationSetAlreadyExistsException
	if errors.As(err, &cfgExists) {
		return consts.AlreadyExists
	}

	if status, ok := httpStatus(err); ok {
		switch {
		case status == http.StatusTooManyRequests:
			return consts.TransientFailure
		case status == http.StatusConflict:
			return consts.AlreadyExists
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := alreadyExistsCodes[apiErr.ErrorCode()]; ok {
			return consts.AlreadyExists
		}
		if _, ok := throttlingCodes[apiErr.ErrorCode()]; ok {
			return consts.TransientFailure
		}
	}

	if mentionsAlreadyExists(err.Error()) {
		return consts.AlreadyExists
	}
	return consts.FatalFailure
}

func IsRateLimited(err error) bool {
	return Classify(err) == consts.TransientFailure
}

func IsAlreadyExists(err error) bool {
	return Classify(err) == consts.AlreadyExists
}

var notFoundCodes = map[string]struct{}{
	"NotFoundException": {},
	"NoSuchEntity":      {},
	"NoSuchHostedZone":  {},
	"ResourceNotFound":  {},
}

// IsNotFound reports whether the provider says the resource does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if status, ok := httpStatus(err); ok && status == http.StatusNotFound {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := notFoundCodes[apiErr.ErrorCode()]; ok {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}

var accessDeniedCodes = map[string]struct{}{
	"AccessDenied":          {},
	"AccessDeniedException": {},
	"UnauthorizedOperation": {},
}

// IsAccessDenied reports whether the caller lacks permission for the call.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	if status, ok := httpStatus(err); ok && status == http.StatusForbidden {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		_, ok := accessDeniedCodes[apiErr.ErrorCode()]
		return ok
	}
	return false
}

func httpStatus(err error) (int, bool) {
	var doErr *godo.ErrorResponse
	if errors.As(err, &doErr) && doErr.Response != nil {
		return doErr.Response.StatusCode, true
	}
	var awsErr *awshttp.ResponseError
	if errors.As(err, &awsErr) {
		return awsErr.HTTPStatusCode(), true
	}
	return 0, false
}

func mentionsAlreadyExists(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "already exist") || strings.Contains(msg, "duplicate record")
}
