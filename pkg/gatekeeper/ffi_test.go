package gatekeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNative_ValidateReturnsZeroOnAccept(t *testing.T) {
	n := Native{}
	code, err := n.Validate(`{"process":{"user":{"uid":1000}},"linux":{"namespaces":[{"type":"user"}]}}`)
	require.NoError(t, err)
	assert.Equal(t, int(Accepted), code)
}

func TestNative_ValidateReturnsRejectionCode(t *testing.T) {
	n := Native{}
	code, err := n.Validate(`{"process":{"user":{"uid":0}}}`)
	require.NoError(t, err)
	assert.Equal(t, int(InvalidUserNamespace), code)
}

func TestNative_ValidateRejectsNullByte(t *testing.T) {
	n := Native{}
	_, err := n.Validate("abc\x00def")
	assert.ErrorIs(t, err, ErrNullByte)
}

func TestNative_ErrorMessageMatchesKindString(t *testing.T) {
	n := Native{}
	assert.Equal(t, InvalidCapabilities.String(), n.ErrorMessage(int(InvalidCapabilities)))
}

func TestNative_SanitiseWritesResultAndReturnsByteCount(t *testing.T) {
	n := Native{}
	text := `{"process":{"user":{"uid":1000}}}`
	buf := make([]byte, 4096)
	written, err := n.Sanitise(text, buf)
	require.NoError(t, err)
	require.Greater(t, written, 0)

	// The buffer contents must still pass Validate once parsed.
	code, err := n.Validate(string(buf[:written]))
	require.NoError(t, err)
	assert.Equal(t, int(Accepted), code)
}

func TestNative_SanitiseReturnsNegatedRejectionOnUndersizedBuffer(t *testing.T) {
	n := Native{}
	text := `{"process":{"user":{"uid":1000}}}`
	written, err := n.Sanitise(text, make([]byte, 1))
	require.NoError(t, err)
	assert.Equal(t, -int(ParseError), written)
}

func TestNative_SanitiseRejectsNullByte(t *testing.T) {
	n := Native{}
	_, err := n.Sanitise("abc\x00", make([]byte, 4096))
	assert.ErrorIs(t, err, ErrNullByte)
}

func TestNative_VersionIsStable(t *testing.T) {
	n := Native{}
	assert.Equal(t, version, n.Version())
}

func TestStub_AlwaysAccepts(t *testing.T) {
	s := Stub{}
	code, err := s.Validate(`{"linux":{"privileged":false},"process":{"capabilities":["SYS_ADMIN"]}}`)
	require.NoError(t, err)
	assert.Equal(t, int(Accepted), code)
}

func TestStub_StillRejectsNullByte(t *testing.T) {
	s := Stub{}
	_, err := s.Validate("\x00")
	assert.ErrorIs(t, err, ErrNullByte)
}

func TestStub_VersionDiffersFromNative(t *testing.T) {
	assert.NotEqual(t, Native{}.Version(), Stub{}.Version())
}

func TestValidatorInterface_IsSatisfiedByBothImplementations(t *testing.T) {
	var _ Validator = Native{}
	var _ Validator = Stub{}
}
