package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    *Endpoint
		wantStr string
		wantErr string
	}{
		{
			name:    "ldaps default port",
			uri:     "ldaps://ldap.kuleuven.example",
			want:    &Endpoint{Scheme: "ldaps", Host: "ldap.kuleuven.example", Port: 636, UseTLS: true},
			wantStr: "ldap.kuleuven.example:636",
		},
		{
			name:    "ldap explicit port",
			uri:     "ldap://ldap.vsc.example:3389",
			want:    &Endpoint{Scheme: "ldap", Host: "ldap.vsc.example", Port: 3389},
			wantStr: "ldap.vsc.example:3389",
		},
		{
			name:    "upper case scheme",
			uri:     "LDAP://ldap.vsc.example",
			want:    &Endpoint{Scheme: "ldap", Host: "ldap.vsc.example", Port: 389},
			wantStr: "ldap.vsc.example:389",
		},
		{
			name:    "ldapi default socket",
			uri:     "ldapi://",
			want:    &Endpoint{Scheme: "ldapi", Host: "/var/run/slapd/ldapi"},
			wantStr: "/var/run/slapd/ldapi",
		},
		{name: "empty", uri: "", wantErr: "URI cannot be empty"},
		{name: "unsupported scheme", uri: "https://ldap.vsc.example", wantErr: "unsupported scheme"},
		{name: "missing scheme", uri: "ldap.vsc.example", wantErr: "unsupported scheme"},
		{name: "missing host", uri: "ldaps://:636", wantErr: "has no host"},
		{name: "bad port", uri: "ldap://ldap.vsc.example:70000", wantErr: "invalid port number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.uri)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStr, got.String())
		})
	}
}
