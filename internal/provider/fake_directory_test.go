package provider

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/stretchr/testify/require"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
)

const testConfigFile = `kul_uri  ldaps://ldap.kuleuven.example
kul_base ou=people,dc=kuleuven,dc=be
kul_who  None
kul_cred None
vsc_uri  ldap://ldap.vsc.example:389
vsc_base ou=vsc,dc=vscentrum,dc=be
vsc_who  cn=reader,dc=vscentrum,dc=be
vsc_cred s3cret
`

// fakeDirectory serves canned entries through the Dialer and Conn interfaces.
type fakeDirectory struct {
	mu sync.Mutex

	entries   []*ldap.Entry
	dialErr   error
	bindErr   error
	searchErr error

	dialed   []string
	binds    []string
	filters  []string
	baseDNs  []string
	released int
}

func (f *fakeDirectory) Dial(ctx context.Context, uri string, opts ldapclient.DialOptions) (ldapclient.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.dialed = append(f.dialed, uri)
	return f, nil
}

func (f *fakeDirectory) Bind(username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.binds = append(f.binds, username)
	return f.bindErr
}

func (f *fakeDirectory) UnauthenticatedBind(username string) error {
	return f.Bind(username, "")
}

func (f *fakeDirectory) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filters = append(f.filters, req.Filter)
	f.baseDNs = append(f.baseDNs, req.BaseDN)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func (f *fakeDirectory) Unbind() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.released++
	return nil
}

func (f *fakeDirectory) Close() error {
	return nil
}

func vscAccount(uid, institute string, extra map[string][]string) *ldap.Entry {
	attrs := map[string][]string{
		"uid":           {uid},
		"institute":     {institute},
		"status":        {"active"},
		"uidNumber":     {"2540001"},
		"gidNumber":     {"2540001"},
		"homeDirectory": {"/user/" + institute + "/400/" + uid},
		"homeQuota":     {"3145728"},
		"mail":          {uid + "@vscentrum.example"},
		"objectClass":   {"top", "vscuser"},
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return ldap.NewEntry("cn="+uid+",ou=vsc,dc=vscentrum,dc=be", attrs)
}

func testProviderData(t *testing.T, dir *fakeDirectory) *ldapclient.ProviderData {
	t.Helper()

	store, err := ldapclient.ParseConfigStore(strings.NewReader(testConfigFile))
	require.NoError(t, err)
	return ldapclient.NewProviderData(store, ldapclient.SessionConfig{Dialer: dir})
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "private.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// objectValue builds an object of the schema type, leaving unset attributes null.
func objectValue(typ tftypes.Type, values map[string]tftypes.Value) tftypes.Value {
	objType := typ.(tftypes.Object)
	vals := make(map[string]tftypes.Value, len(objType.AttributeTypes))
	for name, attrType := range objType.AttributeTypes {
		if v, ok := values[name]; ok {
			vals[name] = v
			continue
		}
		vals[name] = tftypes.NewValue(attrType, nil)
	}
	return tftypes.NewValue(objType, vals)
}
