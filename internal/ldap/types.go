package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Target selects one of the two pre-configured directory endpoints.
type Target int

const (
	TargetUnknown  Target = iota
	TargetKULeuven        // Institutional directory
	TargetVSC             // Federated/shared VSC directory
)

// String returns the canonical name of the target.
func (t Target) String() string {
	switch t {
	case TargetKULeuven:
		return "kuleuven"
	case TargetVSC:
		return "vsc"
	default:
		return "unknown"
	}
}

// keyPrefix returns the configuration store key prefix for the target.
func (t Target) keyPrefix() string {
	switch t {
	case TargetKULeuven:
		return "kul"
	case TargetVSC:
		return "vsc"
	default:
		return ""
	}
}

// Valid reports whether t is one of the recognised targets.
func (t Target) Valid() bool {
	return t == TargetKULeuven || t == TargetVSC
}

// SupportedTargets lists the canonical target names.
func SupportedTargets() []string {
	return []string{TargetKULeuven.String(), TargetVSC.String()}
}

// ParseTarget resolves a target name, ignoring case and surrounding whitespace.
func ParseTarget(name string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kuleuven":
		return TargetKULeuven, nil
	case "vsc":
		return TargetVSC, nil
	default:
		return TargetUnknown, NewConfigurationError("parse_target",
			fmt.Sprintf("unrecognised target %q, must be one of: %s", name, strings.Join(SupportedTargets(), ", ")), nil)
	}
}

// ConnectionParams holds the resolved parameters for one target.
type ConnectionParams struct {
	URI        string // Endpoint URI (ldap://, ldaps:// or ldapi://)
	BaseDN     string // Search base
	BindDN     string // Bind identity, empty for anonymous
	Credential string // Bind credential, empty for unauthenticated bind
}

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	StateUnconnected SessionState = iota
	StateInitialized
	StateBound
	StateClosed
)

// String returns string representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateInitialized:
		return "initialized"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionConfig controls how a Session reaches its endpoint.
// Zero values are replaced by the defaults in the struct tags.
type SessionConfig struct {
	// ConfigFile is the path of the configuration store. When empty the
	// VSC_LDAP_CONFIG environment variable is consulted, then DefaultConfigFile.
	ConfigFile string

	// SkipTLSVerify disables certificate validation. Only for legacy endpoints
	// with self-signed certificates.
	SkipTLSVerify bool `default:"false"`

	// StartTLS upgrades plain ldap:// connections after dialing.
	StartTLS bool `default:"false"`

	// Timeout bounds dialing and every request on the connection.
	Timeout time.Duration `default:"30s"`

	// Dialer opens protocol handles. Defaults to the go-ldap dialer.
	Dialer Dialer
}

// DialOptions carries the transport settings passed to a Dialer.
type DialOptions struct {
	TLSConfig *tls.Config
	StartTLS  bool
	Timeout   time.Duration
}

// Dialer opens connection handles to a directory endpoint.
type Dialer interface {
	Dial(ctx context.Context, uri string, opts DialOptions) (Conn, error)
}

// Conn is the subset of the directory protocol client a Session depends on.
type Conn interface {
	Bind(username, password string) error
	UnauthenticatedBind(username string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Unbind() error
	Close() error
}

// Field names an attribute of a directory entry.
type Field string

// Attributes documented for VSC account entries.
const (
	FieldUID              Field = "uid"
	FieldCN               Field = "cn"
	FieldMail             Field = "mail"
	FieldStatus           Field = "status"
	FieldInstitute        Field = "institute"
	FieldInstituteLogin   Field = "instituteLogin"
	FieldResearchField    Field = "researchField"
	FieldHomeDirectory    Field = "homeDirectory"
	FieldDataDirectory    Field = "dataDirectory"
	FieldScratchDirectory Field = "scratchDirectory"
	FieldHomeQuota        Field = "homeQuota"
	FieldDataQuota        Field = "dataQuota"
	FieldScratchQuota     Field = "scratchQuota"
	FieldUIDNumber        Field = "uidNumber"
	FieldGIDNumber        Field = "gidNumber"
	FieldLoginShell       Field = "loginShell"
	FieldGecos            Field = "gecos"
	FieldPubkey           Field = "pubkey"
	FieldMukHomeOnScratch Field = "mukHomeOnScratch"
	FieldObjectClass      Field = "objectClass"
)

// String returns the attribute name.
func (f Field) String() string {
	return string(f)
}
