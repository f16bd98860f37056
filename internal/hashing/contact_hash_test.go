package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactHash_DeterministicForSameInputs(t *testing.T) {
	h := NewHasher("secret")
	a := h.ContactHash("prop_1", "whatsapp_meta", "+5511999990000")
	b := h.ContactHash("prop_1", "whatsapp_meta", "+5511999990000")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestContactHash_DiffersAcrossChannelOrAddress(t *testing.T) {
	h := NewHasher("secret")
	base := h.ContactHash("prop_1", "whatsapp_meta", "+5511999990000")

	assert.NotEqual(t, base, h.ContactHash("prop_1", "whatsapp_evolution", "+5511999990000"))
	assert.NotEqual(t, base, h.ContactHash("prop_1", "whatsapp_meta", "+5511999990001"))
	assert.NotEqual(t, base, h.ContactHash("prop_2", "whatsapp_meta", "+5511999990000"))
}

func TestContactHash_DiffersAcrossSecrets(t *testing.T) {
	a := NewHasher("secret-a").ContactHash("prop_1", "whatsapp_meta", "+5511999990000")
	b := NewHasher("secret-b").ContactHash("prop_1", "whatsapp_meta", "+5511999990000")
	assert.NotEqual(t, a, b)
}
