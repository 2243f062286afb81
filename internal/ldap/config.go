package ldap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
)

const (
	// DefaultConfigFile is used when neither SessionConfig.ConfigFile nor
	// ConfigFileEnvVar is set.
	DefaultConfigFile = "/etc/vsc-ldap/private.conf"

	// ConfigFileEnvVar overrides the location of the configuration store.
	ConfigFileEnvVar = "VSC_LDAP_CONFIG"

	// noneValue is the literal that denotes an empty value in the store.
	noneValue = "None"
)

// Key suffixes, one per connection parameter. Full keys are <prefix>_<suffix>,
// e.g. kul_uri or vsc_cred.
const (
	keyURI  = "uri"
	keyBase = "base"
	keyWho  = "who"
	keyCred = "cred"
)

// ConfigStore is the read-only key/value store holding connection parameters
// for every target.
type ConfigStore struct {
	path   string
	values map[string]string
}

// NewConfigStore creates a store from in-memory values, applying the same
// normalization as a loaded file.
func NewConfigStore(values map[string]string) *ConfigStore {
	store := &ConfigStore{values: make(map[string]string, len(values))}
	for k, v := range values {
		store.values[k] = normalizeValue(v)
	}
	return store
}

// ResolveConfigFile returns the store path to use for the given explicit path.
func ResolveConfigFile(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(ConfigFileEnvVar); env != "" {
		return env
	}
	return DefaultConfigFile
}

// LoadConfigStore reads the store at path.
func LoadConfigStore(path string) (*ConfigStore, error) {
	path = ResolveConfigFile(path)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewConfigurationError("load_config", fmt.Sprintf("could not find the config file %s", path), err)
		}
		return nil, NewConfigurationError("load_config", fmt.Sprintf("could not open the config file %s", path), err)
	}
	defer f.Close()

	store, err := ParseConfigStore(f)
	if err != nil {
		return nil, err
	}
	store.path = path

	return store, nil
}

// ParseConfigStore parses whitespace-delimited lines. The first token of a
// line is the key and the last token is the value. Blank lines and lines
// starting with '#' are skipped.
func ParseConfigStore(r io.Reader) (*ConfigStore, error) {
	store := &ConfigStore{values: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 {
			return nil, NewConfigurationError("parse_config",
				fmt.Sprintf("line %d: key %q has no value", lineNo, fields[0]), nil)
		}
		store.values[fields[0]] = normalizeValue(fields[len(fields)-1])
	}

	if err := scanner.Err(); err != nil {
		return nil, NewConfigurationError("parse_config", "failed to read config", err)
	}

	return store, nil
}

func normalizeValue(v string) string {
	if v == noneValue {
		return ""
	}
	return v
}

// Path returns the file the store was loaded from, if any.
func (s *ConfigStore) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *ConfigStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (s *ConfigStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ConnectionParams resolves the parameters for target. Every key must be
// present and the endpoint URI must be usable.
func (s *ConfigStore) ConnectionParams(target Target) (*ConnectionParams, error) {
	if !target.Valid() {
		return nil, NewConfigurationError("connection_params", fmt.Sprintf("unrecognised target: %s", target), nil)
	}

	lookup := func(suffix string) (string, error) {
		key := target.keyPrefix() + "_" + suffix
		v, ok := s.values[key]
		if !ok {
			return "", withTarget(NewConfigurationError("connection_params",
				fmt.Sprintf("required key %q is absent from the config store", key), nil), target)
		}
		return v, nil
	}

	resolved := make(map[string]string, 4)
	for _, suffix := range []string{keyURI, keyBase, keyWho, keyCred} {
		v, err := lookup(suffix)
		if err != nil {
			return nil, err
		}
		resolved[suffix] = v
	}

	if _, err := ParseEndpoint(resolved[keyURI]); err != nil {
		return nil, withTarget(NewConfigurationError("connection_params",
			fmt.Sprintf("invalid endpoint URI for key %q", target.keyPrefix()+"_"+keyURI), err), target)
	}

	if resolved[keyBase] != "" {
		if _, err := ldap.ParseDN(resolved[keyBase]); err != nil {
			return nil, withTarget(NewConfigurationError("connection_params",
				fmt.Sprintf("invalid base DN for key %q", target.keyPrefix()+"_"+keyBase), err), target)
		}
	}

	return &ConnectionParams{
		URI:        resolved[keyURI],
		BaseDN:     resolved[keyBase],
		BindDN:     resolved[keyWho],
		Credential: resolved[keyCred],
	}, nil
}

// WriteTo serializes the store as sorted "key value" lines, writing empty
// values as None so that the output loads back to the same store.
func (s *ConfigStore) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, k := range s.Keys() {
		v := s.values[k]
		if v == "" {
			v = noneValue
		}
		n, err := fmt.Fprintf(w, "%s %s\n", k, v)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// applyDefaults fills zero-valued fields of the session configuration.
func (c *SessionConfig) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return NewConfigurationError("session_config", "failed to apply defaults", err)
	}
	c.ConfigFile = ResolveConfigFile(c.ConfigFile)
	if c.Dialer == nil {
		c.Dialer = NewDialer()
	}
	return nil
}
