package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/regsync/pkg/identity"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"formatted", "12.345.678/0001-99", "12345678000199"},
		{"digits only", "12345678000199", "12345678000199"},
		{"surrounding noise", "  CNPJ: 12.345.678/0001-99 ", "12345678000199"},
		{"empty", "", ""},
		{"no digits", "n/a", ""},
		{"short", "12-34", "1234"},
		{"repeated digits", "11.111.111/1111-11", "11111111111111"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.Canonicalize(tt.raw))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-99", identity.Format("12345678000199"))
	assert.Equal(t, "12.345.678/0001-99", identity.Format("12.345.678/0001-99"))

	// wrong digit counts are preserved as-is
	assert.Equal(t, "1234", identity.Format("1234"))
	assert.Equal(t, "123456780001990", identity.Format("123456780001990"))
	assert.Equal(t, "", identity.Format(""))
}

func TestFormatRoundTrip(t *testing.T) {
	inputs := []string{
		"12.345.678/0001-99",
		"12345678000199",
		"1234",
		"abc 9 def 8",
		"",
		"00.000.000/0000-00",
		"123456780001990",
	}
	for _, in := range inputs {
		c := identity.Canonicalize(in)
		assert.Equal(t, c, identity.Canonicalize(identity.Format(c)), "input %q", in)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, identity.Valid("11.222.333/0001-81"))
	assert.True(t, identity.Valid("11222333000181"))
	assert.False(t, identity.Valid("11.222.333/0001-82"))
	assert.False(t, identity.Valid("11.111.111/1111-11"))
	assert.False(t, identity.Valid("1122233300018"))
	assert.False(t, identity.Valid(""))
}

func TestCPF(t *testing.T) {
	assert.True(t, identity.ValidCPF("529.982.247-25"))
	assert.False(t, identity.ValidCPF("529.982.247-24"))
	assert.False(t, identity.ValidCPF("111.111.111-11"))
}
