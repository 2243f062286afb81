package ldap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
)

func TestDirectoryError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DirectoryError
		want string
	}{
		{
			name: "basic error",
			err: &DirectoryError{
				Operation: "search",
				Category:  ErrorCategoryQuery,
				Message:   "filter cannot be empty",
			},
			want: "query error: search failed - filter cannot be empty",
		},
		{
			name: "error with code and server message",
			err: &DirectoryError{
				Operation: "bind",
				Category:  ErrorCategoryAuthentication,
				LDAPCode:  ldap.LDAPResultInvalidCredentials,
				Message:   "Invalid credentials",
				ServerMsg: "80090308: LdapErr",
				Target:    "vsc",
			},
			want: "authentication error: bind failed (code 49) - Invalid credentials - server: 80090308: LdapErr - target: vsc",
		},
		{
			name: "cause is appended without code",
			err: &DirectoryError{
				Operation: "load_config",
				Category:  ErrorCategoryConfiguration,
				Message:   "could not find the config file /etc/vsc-ldap/private.conf",
				Cause:     errors.New("no such file or directory"),
			},
			want: "configuration error: load_config failed - could not find the config file /etc/vsc-ldap/private.conf - no such file or directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNewProtocolErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           *DirectoryError
		wantCategory  ErrorCategory
		wantCode      uint16
		wantRetryable bool
	}{
		{
			name:         "invalid credentials",
			err:          NewAuthenticationError(ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad"))),
			wantCategory: ErrorCategoryAuthentication,
			wantCode:     ldap.LDAPResultInvalidCredentials,
		},
		{
			name:          "server busy during bind",
			err:           NewAuthenticationError(ldap.NewError(ldap.LDAPResultBusy, errors.New("busy"))),
			wantCategory:  ErrorCategoryAuthentication,
			wantCode:      ldap.LDAPResultBusy,
			wantRetryable: true,
		},
		{
			name:          "network error",
			err:           NewConnectionError("initialize", ldap.NewError(ldap.ErrorNetwork, errors.New("refused"))),
			wantCategory:  ErrorCategoryConnection,
			wantCode:      ldap.ErrorNetwork,
			wantRetryable: true,
		},
		{
			name:          "net.OpError",
			err:           NewConnectionError("initialize", &net.OpError{Op: "dial", Err: errors.New("refused")}),
			wantCategory:  ErrorCategoryConnection,
			wantRetryable: true,
		},
		{
			name:         "plain error",
			err:          NewConnectionError("initialize", errors.New("certificate signed by unknown authority")),
			wantCategory: ErrorCategoryConnection,
		},
		{
			name:         "filter compile",
			err:          NewQueryError(ldap.NewError(ldap.ErrorFilterCompile, errors.New("unexpected end of filter"))),
			wantCategory: ErrorCategoryQuery,
			wantCode:     ldap.ErrorFilterCompile,
		},
		{
			name:         "nil cause",
			err:          NewQueryError(nil),
			wantCategory: ErrorCategoryQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCategory, tt.err.Category)
			assert.Equal(t, tt.wantCode, tt.err.LDAPCode)
			assert.Equal(t, tt.wantRetryable, tt.err.IsRetryable())
			assert.Equal(t, tt.wantRetryable, IsRetryableError(tt.err))
		})
	}
}

func TestDirectoryError_Unwrap(t *testing.T) {
	cause := ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object"))
	err := fmt.Errorf("lookup: %w", NewQueryError(cause))

	var ldapErr *ldap.Error
	assert.ErrorAs(t, err, &ldapErr)
	assert.Equal(t, uint16(ldap.LDAPResultNoSuchObject), ldapErr.ResultCode)

	var dirErr *DirectoryError
	assert.ErrorAs(t, err, &dirErr)
	assert.Equal(t, "Search base does not exist", dirErr.Message)
}

func TestErrorCategoryHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"configuration", NewConfigurationError("load_config", "missing", nil), IsConfigurationError, true},
		{"state", NewStateError("search", StateClosed, "bound"), IsStateError, true},
		{"field", NewFieldError(FieldUID, ""), IsFieldError, true},
		{"query", NewQueryError(errors.New("x")), IsQueryError, true},
		{"connection", NewConnectionError("close", errors.New("x")), IsConnectionError, true},
		{"authentication", NewAuthenticationError(errors.New("x")), IsAuthenticationError, true},
		{"raw ldap auth error", ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("x")), IsAuthenticationError, true},
		{"wrapped", fmt.Errorf("wrapped: %w", NewStateError("bind", StateUnconnected, "initialized")), IsStateError, true},
		{"mismatch", NewFieldError(FieldUID, ""), IsQueryError, false},
		{"nil", nil, IsConfigurationError, false},
		{"plain", errors.New("x"), IsConnectionError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestIsRetryableError_Generic(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(errors.New("read: connection reset by peer")))
	assert.False(t, IsRetryableError(errors.New("invalid argument")))
	assert.False(t, IsRetryableError(context.Canceled))
}

func TestNewStateError(t *testing.T) {
	err := withTarget(NewStateError("search", StateUnconnected, StateBound.String()), TargetKULeuven)

	assert.Equal(t, ErrorCategoryState, err.Category)
	assert.Equal(t, "kuleuven", err.Target)
	assert.Equal(t, "state error: search failed - session is unconnected, bound required - target: kuleuven", err.Error())
	assert.False(t, err.IsRetryable())
}

func TestNewFieldError(t *testing.T) {
	assert.Equal(t, `the requested field "mail" is unavailable`, NewFieldError(FieldMail, "").Message)
	assert.Equal(t, `the requested field "mail" is unavailable in entry uid=x,dc=y`, NewFieldError(FieldMail, "uid=x,dc=y").Message)
}

func TestWithTarget(t *testing.T) {
	assert.Nil(t, withTarget(nil, TargetVSC))

	err := withTarget(NewQueryError(nil), TargetUnknown)
	assert.Empty(t, err.Target)
}
