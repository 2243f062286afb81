package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"user", UserFilter("vsc12345"), "(uid=vsc12345)"},
		{"escaped value", Equal(FieldCN, "a*b(c)"), `(cn=a\2ab\28c\29)`},
		{"present", Present(FieldMail), "(mail=*)"},
		{"and", And(Equal(FieldStatus, "inactive"), Equal(FieldInstitute, "leuven")), "(&(status=inactive)(institute=leuven))"},
		{"or", Or(UserFilter("a"), UserFilter("b")), "(|(uid=a)(uid=b))"},
		{"not", Not(Present(FieldPubkey)), "(!(pubkey=*))"},
		{"single and", And(UserFilter("a")), "(uid=a)"},
		{"empty or", Or(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestNormalizeFilter(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(&(status=inactive) (institute=leuven))", "(&(status=inactive)(institute=leuven))"},
		{"  (uid=vsc12345)\n", "(uid=vsc12345)"},
		{"( & (a=1)\t(b=2))", "(&(a=1)(b=2))"},
		{"(cn=Jane Doe)", "(cn=Jane Doe)"},
		{"(|(cn=a b) (cn=c d))", "(|(cn=a b)(cn=c d))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFilter(tt.input))
		})
	}
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		filter  string
		wantErr bool
	}{
		{"(uid=vsc12345)", false},
		{"(&(status=inactive)(institute=leuven))", false},
		{"(uid=*)", false},
		{"", true},
		{"   ", true},
		{"uid=vsc12345", true},
		{"(uid=vsc12345", true},
		{"(&(uid=a)(uid=b)", true},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			err := ValidateFilter(tt.filter)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsQueryError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
