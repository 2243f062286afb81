package ldap

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory represents the kind of failure a DirectoryError reports.
type ErrorCategory string

const (
	ErrorCategoryConfiguration  ErrorCategory = "configuration"
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryState          ErrorCategory = "state"
	ErrorCategoryQuery          ErrorCategory = "query"
	ErrorCategoryField          ErrorCategory = "field"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// DirectoryError provides typed error information for session operations.
type DirectoryError struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	Target    string        // Target the session was created for (if known)
	LDAPCode  uint16        // LDAP result code
	Message   string        // Human-readable message
	ServerMsg string        // Server-provided message
	Retryable bool          // Whether a retry may succeed
	Cause     error         // Underlying error
}

func (e *DirectoryError) Error() string {
	var parts []string

	if e.LDAPCode > 0 {
		parts = append(parts, fmt.Sprintf("%s error: %s failed (code %d)", e.Category, e.Operation, e.LDAPCode))
	} else {
		parts = append(parts, fmt.Sprintf("%s error: %s failed", e.Category, e.Operation))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.ServerMsg != "" && e.ServerMsg != e.Message {
		parts = append(parts, fmt.Sprintf("server: %s", e.ServerMsg))
	}

	if e.Target != "" {
		parts = append(parts, fmt.Sprintf("target: %s", e.Target))
	}

	if e.Cause != nil && e.LDAPCode == 0 && e.Cause.Error() != e.Message {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, " - ")
}

func (e *DirectoryError) IsRetryable() bool {
	return e.Retryable
}

func (e *DirectoryError) Unwrap() error {
	return e.Cause
}

// RetryableError indicates an error that can be retried.
type RetryableError interface {
	error
	IsRetryable() bool
}

// NewConfigurationError reports a missing or invalid store, target or key.
func NewConfigurationError(operation, message string, cause error) *DirectoryError {
	return &DirectoryError{
		Operation: operation,
		Category:  ErrorCategoryConfiguration,
		Message:   message,
		Cause:     cause,
	}
}

// NewStateError reports an operation invoked out of lifecycle order.
func NewStateError(operation string, state SessionState, want string) *DirectoryError {
	return &DirectoryError{
		Operation: operation,
		Category:  ErrorCategoryState,
		Message:   fmt.Sprintf("session is %s, %s required", state, want),
	}
}

// NewFieldError reports an attribute missing from the returned entries.
func NewFieldError(field Field, dn string) *DirectoryError {
	msg := fmt.Sprintf("the requested field %q is unavailable", field)
	if dn != "" {
		msg = fmt.Sprintf("%s in entry %s", msg, dn)
	}
	return &DirectoryError{
		Operation: "get_field",
		Category:  ErrorCategoryField,
		Message:   msg,
	}
}

// NewConnectionError reports a transport or handle failure.
func NewConnectionError(operation string, cause error) *DirectoryError {
	return newProtocolError(operation, ErrorCategoryConnection, cause)
}

// NewAuthenticationError reports a rejected bind.
func NewAuthenticationError(cause error) *DirectoryError {
	return newProtocolError("bind", ErrorCategoryAuthentication, cause)
}

// NewQueryError reports a malformed filter or a failed search.
func NewQueryError(cause error) *DirectoryError {
	return newProtocolError("search", ErrorCategoryQuery, cause)
}

// newProtocolError builds an error of the given category, extracting LDAP
// result information from the cause when available.
func newProtocolError(operation string, category ErrorCategory, cause error) *DirectoryError {
	dirErr := &DirectoryError{
		Operation: operation,
		Category:  category,
		Cause:     cause,
	}

	if cause == nil {
		return dirErr
	}

	var ldapResultErr *ldap.Error
	if errors.As(cause, &ldapResultErr) {
		dirErr.LDAPCode = ldapResultErr.ResultCode
		if ldapResultErr.Err != nil {
			dirErr.ServerMsg = ldapResultErr.Err.Error()
		}
		dirErr.Message = getLDAPCodeMessage(ldapResultErr.ResultCode)
		dirErr.Retryable = isLDAPCodeRetryable(ldapResultErr.ResultCode)
	} else {
		dirErr.Message = cause.Error()
		dirErr.Retryable = isGenericErrorRetryable(cause)
	}

	// Rejected credentials or a bad filter will not fix themselves.
	if category == ErrorCategoryAuthentication && categorizeError(dirErr.LDAPCode) == ErrorCategoryAuthentication {
		dirErr.Retryable = false
	}

	return dirErr
}

// categorizeError categorizes an error based on LDAP result code.
func categorizeError(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired,
		ldap.LDAPResultConfidentialityRequired,
		ldap.LDAPResultAuthMethodNotSupported,
		ldap.ErrorEmptyPassword:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultFilterError,
		ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultUndefinedAttributeType,
		ldap.LDAPResultInappropriateMatching,
		ldap.LDAPResultSizeLimitExceeded,
		ldap.LDAPResultTimeLimitExceeded:
		return ErrorCategoryQuery

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError,
		ldap.LDAPResultTimeout,
		ldap.ErrorNetwork:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// isLDAPCodeRetryable determines if an LDAP error code indicates a transient condition.
func isLDAPCodeRetryable(code uint16) bool {
	switch code {
	case ldap.LDAPResultBusy,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultServerDown,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultConnectError,
		ldap.LDAPResultTimeout,
		ldap.ErrorNetwork:
		return true
	default:
		return false
	}
}

// isGenericErrorRetryable determines if a non-LDAP error is transient.
func isGenericErrorRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"broken pipe",
		"temporary failure",
		"server temporarily unavailable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// getLDAPCodeMessage returns a human-readable message for an LDAP result code.
func getLDAPCodeMessage(code uint16) string {
	switch code {
	case ldap.LDAPResultOperationsError:
		return "LDAP operations error"
	case ldap.LDAPResultProtocolError:
		return "LDAP protocol error"
	case ldap.LDAPResultTimeLimitExceeded:
		return "LDAP time limit exceeded"
	case ldap.LDAPResultSizeLimitExceeded:
		return "LDAP size limit exceeded"
	case ldap.LDAPResultAuthMethodNotSupported:
		return "Authentication method not supported"
	case ldap.LDAPResultStrongAuthRequired:
		return "Strong authentication required"
	case ldap.LDAPResultConfidentialityRequired:
		return "Confidentiality required"
	case ldap.LDAPResultNoSuchAttribute:
		return "Requested attribute does not exist"
	case ldap.LDAPResultUndefinedAttributeType:
		return "Attribute type is not defined"
	case ldap.LDAPResultInappropriateMatching:
		return "Inappropriate matching rule"
	case ldap.LDAPResultNoSuchObject:
		return "Search base does not exist"
	case ldap.LDAPResultInvalidDNSyntax:
		return "Invalid DN syntax"
	case ldap.LDAPResultInappropriateAuthentication:
		return "Inappropriate authentication method"
	case ldap.LDAPResultInvalidCredentials:
		return "Invalid credentials"
	case ldap.LDAPResultInsufficientAccessRights:
		return "Insufficient access rights"
	case ldap.LDAPResultBusy:
		return "Server is busy"
	case ldap.LDAPResultUnavailable:
		return "Server is unavailable"
	case ldap.LDAPResultUnwillingToPerform:
		return "Server is unwilling to perform the operation"
	case ldap.LDAPResultServerDown:
		return "Server is down"
	case ldap.LDAPResultTimeout:
		return "Operation timed out"
	case ldap.LDAPResultFilterError:
		return "Invalid search filter"
	case ldap.LDAPResultConnectError:
		return "Connection error"
	case ldap.ErrorNetwork:
		return "Network error"
	case ldap.ErrorFilterCompile:
		return "Invalid search filter"
	case ldap.ErrorEmptyPassword:
		return "Empty password not allowed"
	default:
		return fmt.Sprintf("Unknown LDAP error (code %d)", code)
	}
}

// withTarget records the session target on a DirectoryError and returns it.
func withTarget(err *DirectoryError, target Target) *DirectoryError {
	if err != nil && target.Valid() {
		err.Target = target.String()
	}
	return err
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var dirErr *DirectoryError
	if errors.As(err, &dirErr) {
		return dirErr.Category
	}

	var ldapResultErr *ldap.Error
	if errors.As(err, &ldapResultErr) {
		return categorizeError(ldapResultErr.ResultCode)
	}

	return ErrorCategoryUnknown
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return isGenericErrorRetryable(err)
}

// IsConfigurationError checks if an error reports a configuration problem.
func IsConfigurationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConfiguration
}

// IsConnectionError checks if an error reports a transport problem.
func IsConnectionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConnection
}

// IsAuthenticationError checks if an error indicates a rejected bind.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsStateError checks if an error reports a lifecycle violation.
func IsStateError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryState
}

// IsQueryError checks if an error reports a malformed filter or failed search.
func IsQueryError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryQuery
}

// IsFieldError checks if an error reports a missing attribute.
func IsFieldError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryField
}
