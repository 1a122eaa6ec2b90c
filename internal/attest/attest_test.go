package attest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

const testKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testManifest() Manifest {
	return NewManifest(
		"6f1c1c3e-6a53-4c1e-9d0a-1f3b2f4b5a6c",
		[]byte("scan bytes"),
		redact.NewCategorySet("PERSON", "EMAIL"),
		[]redact.Region{{Quad: redact.Rect(60.869565217391305, 0, 200, 20), Label: "<EMAIL>"}},
	)
}

func TestNewManifest(t *testing.T) {
	m := testManifest()
	assert.Equal(t, []string{"EMAIL", "PERSON"}, m.Categories)
	assert.Len(t, m.Document, 64)
	assert.Zero(t, m.CreatedAt.Nanosecond())

	empty := NewManifest("job", nil, nil, nil)
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"categories":[]`)
	assert.Contains(t, string(raw), `"regions":[]`)
}

func TestSignVerify(t *testing.T) {
	s, err := NewSigner(testKey)
	require.NoError(t, err)
	assert.Len(t, s.KeyID(), 40)

	m := testManifest()
	sig, err := s.Sign(m)
	require.NoError(t, err)
	assert.Len(t, sig, 130)

	require.NoError(t, Verify(m, sig, s.KeyID()))

	// a manifest that went through JSON still verifies
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	var decoded Manifest
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NoError(t, Verify(decoded, sig, s.KeyID()))
}

func TestVerifyRejects(t *testing.T) {
	s, err := NewSigner(testKey)
	require.NoError(t, err)
	m := testManifest()
	sig, err := s.Sign(m)
	require.NoError(t, err)

	tampered := m
	tampered.Regions = []redact.Region{{Quad: redact.Rect(0, 0, 1, 1), Label: "<EMAIL>"}}
	assert.ErrorIs(t, Verify(tampered, sig, s.KeyID()), ErrBadSignature)

	assert.ErrorIs(t, Verify(m, sig, "0000000000000000000000000000000000000000"), ErrBadSignature)
	assert.ErrorIs(t, Verify(m, "zz", s.KeyID()), ErrBadSignature)
	assert.ErrorIs(t, Verify(m, sig[:128], s.KeyID()), ErrBadSignature)
}

func TestNewSignerInvalid(t *testing.T) {
	for _, key := range []string{"", "nothex", "0x1234"} {
		_, err := NewSigner(key)
		assert.Error(t, err, key)
	}
}
