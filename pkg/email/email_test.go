package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddress(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		domain  string
		want    string
	}{
		{"address passes through lowercased", "Jane.Doe@Example.com", "claims.test", "jane.doe@example.com"},
		{"plain id gets domain", "user_42", "claims.test", "user_42@claims.test"},
		{"unsafe runes replaced", "acme/bob smith", "@claims.test", "acme-bob-smith@claims.test"},
		{"no domain for plain id", "user_42", "", ""},
		{"empty owner", "  ", "claims.test", ""},
		{"two at signs is not an address", "a@b@c.io", "claims.test", "a-b-c.io@claims.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Address(tt.ownerID, tt.domain))
		})
	}
}

func TestDeriveNameFromEmail(t *testing.T) {
	first, last := DeriveNameFromEmail("jane.van-doe@example.com")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)

	first, last = DeriveNameFromEmail("")
	assert.Equal(t, "Customer", first)
	assert.Equal(t, "Customer", last)
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello Jane,", Greeting("jane.doe@example.com"))
	assert.Equal(t, "Hello User,", Greeting("user_42@claims.test"))
}
