package ldap

import (
	"context"
	"strings"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProviderData_Validate(t *testing.T) {
	store, err := ParseConfigStore(strings.NewReader(testConfig))
	require.NoError(t, err)

	pd := NewProviderData(store, SessionConfig{})
	require.NoError(t, pd.Validate(context.Background()))
	assert.Equal(t, []Target{TargetKULeuven, TargetVSC}, pd.ConfiguredTargets())

	partial := NewProviderData(NewConfigStore(map[string]string{
		"vsc_uri":  "ldaps://ldap.vsc.example",
		"vsc_base": "dc=vsc",
		"vsc_who":  "None",
		"vsc_cred": "None",
	}), SessionConfig{})
	require.NoError(t, partial.Validate(context.Background()))
	assert.Equal(t, []Target{TargetVSC}, partial.ConfiguredTargets())

	empty := NewProviderData(NewConfigStore(nil), SessionConfig{})
	err = empty.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	unloaded := &ProviderData{}
	err = unloaded.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Nil(t, unloaded.ConfiguredTargets())
}

func TestProviderData_WithSession(t *testing.T) {
	store, err := ParseConfigStore(strings.NewReader(testConfig))
	require.NoError(t, err)

	conn := &MockConn{}
	dialer := &MockDialer{}
	dialer.On("Dial", mock.Anything, "ldaps://ldap.kuleuven.example", mock.Anything).Return(conn, nil).Once()
	conn.On("UnauthenticatedBind", "").Return(nil).Once()
	conn.On("Search", mock.Anything).Return(searchResult(
		ldap.NewEntry("uid=u0012345,ou=people,dc=kuleuven,dc=be", map[string][]string{
			"uid":  {"u0012345"},
			"mail": {"jane.doe@kuleuven.be"},
		}),
	), nil).Once()
	expectRelease(conn)

	pd := NewProviderData(store, SessionConfig{Dialer: dialer})

	var mails []string
	err = pd.WithSession(context.Background(), TargetKULeuven, func(s *Session) error {
		if _, err := s.Search(context.Background(), UserFilter("u0012345")); err != nil {
			return err
		}
		mails, err = s.GetField(FieldMail)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"jane.doe@kuleuven.be"}, mails)
	conn.AssertExpectations(t)
}

func TestProviderData_NewSessionUnloaded(t *testing.T) {
	pd := &ProviderData{}
	s, err := pd.NewSession(context.Background(), TargetVSC)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, IsConfigurationError(err))

	var dirErr *DirectoryError
	require.ErrorAs(t, err, &dirErr)
	assert.Equal(t, "vsc", dirErr.Target)
}
