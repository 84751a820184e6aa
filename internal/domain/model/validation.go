package model

// SharedAPIKey is the widely-distributed fallback token NASA accepts with a
// low shared quota. Classification compares against it exactly,
// case-sensitive.
const SharedAPIKey = "DEMO_KEY"

// KeyClass classifies the API credential in use, which decides which quota
// thresholds apply to a request.
type KeyClass string

const (
	// KeyClassShared is the widely-distributed DEMO_KEY fallback with a low
	// shared quota (30 requests per hour, 25 days per range request).
	KeyClassShared KeyClass = "shared"
	// KeyClassPersonal is a user-obtained api.nasa.gov key with an
	// individual quota.
	KeyClassPersonal KeyClass = "personal"
)

// Severity grades a validation outcome.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityWarning  Severity = "warning"
	SeverityBlocking Severity = "blocking"
)

// ValidationOutcome is the result of evaluating a date range against the
// calendar constraints and the credential's quota class. Permitted is always
// consistent with Severity: blocking outcomes are never permitted, warning
// and none outcomes always are.
type ValidationOutcome struct {
	Permitted bool
	Severity  Severity
	Message   string
	Days      int
}

// Blocked builds a non-permitted blocking outcome.
func Blocked(message string) ValidationOutcome {
	return ValidationOutcome{Permitted: false, Severity: SeverityBlocking, Message: message}
}

// Warn builds a permitted advisory outcome.
func Warn(message string, days int) ValidationOutcome {
	return ValidationOutcome{Permitted: true, Severity: SeverityWarning, Message: message, Days: days}
}

// OK builds a permitted outcome with no message.
func OK(days int) ValidationOutcome {
	return ValidationOutcome{Permitted: true, Severity: SeverityNone, Days: days}
}
