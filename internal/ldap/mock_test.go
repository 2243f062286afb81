package ldap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testConfig = `# directory endpoints
kul_uri  ldaps://ldap.kuleuven.example
kul_base ou=people,dc=kuleuven,dc=be
kul_who  None
kul_cred None

vsc_uri  ldap://ldap.vsc.example:389
vsc_base ou=vsc,dc=vscentrum,dc=be
vsc_who  cn=reader,dc=vscentrum,dc=be
vsc_cred s3cret
`

// MockConn implements the Conn interface for testing.
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Bind(username, password string) error {
	args := m.Called(username, password)
	return args.Error(0)
}

func (m *MockConn) UnauthenticatedBind(username string) error {
	args := m.Called(username)
	return args.Error(0)
}

func (m *MockConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*ldap.SearchResult)
	return result, args.Error(1)
}

func (m *MockConn) Unbind() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDialer implements the Dialer interface for testing.
type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context, uri string, opts DialOptions) (Conn, error) {
	args := m.Called(ctx, uri, opts)
	conn, _ := args.Get(0).(Conn)
	return conn, args.Error(1)
}

// writeConfigFile writes content to a store file in a temporary directory.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "private.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newTestSession builds an unopened session for target backed by dialer.
func newTestSession(t *testing.T, target Target, dialer Dialer) *Session {
	t.Helper()

	store, err := ParseConfigStore(strings.NewReader(testConfig))
	require.NoError(t, err)

	s, err := NewSessionFromStore(context.Background(), target, store, &SessionConfig{Dialer: dialer})
	require.NoError(t, err)
	return s
}

// expectRelease registers a successful unbind and close on conn.
func expectRelease(conn *MockConn) {
	conn.On("Unbind").Return(nil).Once()
	conn.On("Close").Return(nil).Once()
}

func searchResult(entries ...*ldap.Entry) *ldap.SearchResult {
	return &ldap.SearchResult{Entries: entries}
}

// bindOnlyConn accepts binds locally and delegates release to a real
// go-ldap connection.
type bindOnlyConn struct {
	*goLDAPConn
}

func (c *bindOnlyConn) Bind(username, password string) error { return nil }

func (c *bindOnlyConn) UnauthenticatedBind(username string) error { return nil }
