// Package validation holds input rules shared by commands and handlers.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	validation "github.com/jellydator/validation"
)

const maxDomainLength = 253

var (
	labelRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	tldRegex   = regexp.MustCompile(`^([a-z]{2,63}|xn--[a-z0-9-]{1,59})$`)
)

// DomainName checks RFC 1035 label rules on an already normalised name.
var DomainName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_domain_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if len(s) > maxDomainLength {
		return validation.NewError("validation_domain_length", "must be at most 253 characters")
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return validation.NewError("validation_domain_labels", "must contain at least two labels")
	}
	for _, label := range labels {
		if !labelRegex.MatchString(label) {
			return validation.NewError("validation_domain_label", fmt.Sprintf("label %q is not a valid DNS label", label))
		}
	}
	if !tldRegex.MatchString(labels[len(labels)-1]) {
		return validation.NewError("validation_domain_tld", "top-level label must be alphabetic")
	}
	return nil
})

// NormalizeDomain lowercases and drops surrounding space and one trailing dot.
func NormalizeDomain(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// ValidateDomain normalises name and returns it, or an error wrapping
// errs.ErrInvalidDomainFormat.
func ValidateDomain(name string) (string, error) {
	normalized := NormalizeDomain(name)
	if err := validation.Validate(normalized, validation.Required, DomainName); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrInvalidDomainFormat, err)
	}
	return normalized, nil
}
