// Package constants provides shared constants used throughout the regsync codebase.
// This includes timeouts, limits, platform endpoints, known regime identifiers and
// other values that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for a single platform request
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// SyncTimeout is the timeout for a whole sync run
	SyncTimeout = 2 * time.Hour

	// TokenTTL is the assumed lifetime of a platform bearer token.
	// The platform does not report expiry, so it is estimated from issuance.
	TokenTTL = 1 * time.Hour

	// TokenExpirySkew renews a token slightly before its estimated expiry
	TokenExpirySkew = 30 * time.Second

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second

	// DefaultInterval is the minimum delay between mutating platform calls
	DefaultInterval = 1 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of retry attempts for transient failures
	MaxRetries = 3

	// MaxAuthRetries is the number of re-authentications allowed for one request
	MaxAuthRetries = 3

	// DefaultWorkers is the default number of records processed concurrently
	DefaultWorkers = 1

	// MaxWorkers is the upper bound for concurrent record processing
	MaxWorkers = 16

	// DefaultPageSize is the default number of clients per listing page
	DefaultPageSize = 100

	// MaxPageSize is the maximum allowed page size for paginated listing
	MaxPageSize = 1000

	// MaxErrorBodyLength bounds how much of a rejected response body is kept
	MaxErrorBodyLength = 512

	// IdentifierLength is the digit count of a canonical business identifier
	IdentifierLength = 14

	// PersonIdentifierLength is the digit count of a personal identifier
	PersonIdentifierLength = 11
)

// Platform endpoint defaults
const (
	// DefaultAuthURL is the base URL of the platform's authentication service
	DefaultAuthURL = "https://api-auth.jettax360.com.br"

	// DefaultAPIURL is the base URL of the platform's client API
	DefaultAPIURL = "https://api.jettax360.com.br/api/v1"

	// LoginPath is the credential exchange endpoint, relative to DefaultAuthURL
	LoginPath = "/api/jettax360/v1/auth/office/login"

	// ClientsPath is the client collection endpoint
	ClientsPath = "/clients"

	// TaxRegimesPath is the regime catalog endpoint
	TaxRegimesPath = "/tax-regimes"

	// CitiesPath is the municipality code lookup endpoint
	CitiesPath = "/ibge/cities"

	// SearchDocumentPath is the registry-office document lookup endpoint
	SearchDocumentPath = "/utils/search-document"

	// UserAgent is sent with every platform request
	UserAgent = "regsync"
)

// Module names accepted by the platform's module settings endpoint
const (
	// ModuleFederal is the federal tax obligations module
	ModuleFederal = "federal"

	// ModuleServices is the municipal services module
	ModuleServices = "services"
)

// Canonical regime names
const (
	RegimeSimplesNacional = "Simples Nacional"
	RegimeLucroPresumido  = "Lucro Presumido"
	RegimeLucroReal       = "Lucro Real"
	RegimeSIMEI           = "SIMEI"
	RegimeMEI             = "MEI"
)

// StateRegistrationAbsent is the sentinel written and compared whenever a
// state registration is blank, "FALSE" or carries no digits.
const StateRegistrationAbsent = "0"

// KnownRegimeIDs maps canonical regime names to the platform's identifiers.
// Callers must copy before mutating.
var KnownRegimeIDs = map[string]string{
	RegimeSimplesNacional: "60d53314200e556dc277ac20",
	RegimeLucroPresumido:  "62d9471420ba2a79cd31c162",
	RegimeLucroReal:       "62d9471420ba2a79cd31c163",
	RegimeSIMEI:           "60d53314200e556dc277ac21",
	RegimeMEI:             "60d53314200e556dc277ac22",
}

// Path constants
const (
	// DefaultConfigPath is the default path for the configuration file
	DefaultConfigPath = "~/.regsync.yaml"

	// DefaultReportsPath is the default directory for run reports
	DefaultReportsPath = "~/.regsync/reports"
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)

// Error messages
const (
	// ErrMsgMissingCredentials is reported when no platform credentials are configured
	ErrMsgMissingCredentials = "platform email and password are required"

	// ErrMsgAlreadyRegistered is the outcome message for matched records in create-only mode
	ErrMsgAlreadyRegistered = "already registered on the platform"

	// ErrMsgNotRegistered is the outcome message for unmatched records in update-only mode
	ErrMsgNotRegistered = "not registered on the platform"

	// MsgModulesOnly is the outcome message for matched records in modules mode
	MsgModulesOnly = "record left unchanged, modules only"
)
