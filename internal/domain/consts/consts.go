package consts

type DomainStatus string

const (
	DomainStatusPending  DomainStatus = "pending"
	DomainStatusVerified DomainStatus = "verified"
	DomainStatusFailed   DomainStatus = "failed"
)

// VerificationStatus is the identity provider's view of a domain.
type VerificationStatus string

const (
	VerificationNotStarted       VerificationStatus = "NotStarted"
	VerificationPending          VerificationStatus = "Pending"
	VerificationSuccess          VerificationStatus = "Success"
	VerificationFailed           VerificationStatus = "Failed"
	VerificationTemporaryFailure VerificationStatus = "TemporaryFailure"
)

// ToDomainStatus maps the provider status onto the domain lifecycle.
func (v VerificationStatus) ToDomainStatus() DomainStatus {
	switch v {
	case VerificationSuccess:
		return DomainStatusVerified
	case VerificationFailed:
		return DomainStatusFailed
	default:
		return DomainStatusPending
	}
}

// Outcome classifies the result of a call to an external provider.
type Outcome int

const (
	Created Outcome = iota
	AlreadyExists
	TransientFailure
	FatalFailure
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	case TransientFailure:
		return "transient_failure"
	default:
		return "fatal_failure"
	}
}

type RecordType string

const (
	RecordTXT   RecordType = "TXT"
	RecordMX    RecordType = "MX"
	RecordCNAME RecordType = "CNAME"
)
