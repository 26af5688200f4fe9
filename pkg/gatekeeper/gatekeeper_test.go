package gatekeeper

import (
	"testing"

	"github.com/cuemby/vordr/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMinimal() Configuration {
	return Configuration{
		UserID:          1000,
		UserNamespace:   true,
		NetworkMode:     types.NetworkUnprivileged,
		NoNewPrivileges: true,
	}
}

func TestValidate_AcceptsMinimalConfig(t *testing.T) {
	cfg := validMinimal()
	accepted, rej := Validate(cfg)
	require.Nil(t, rej)
	assert.Equal(t, cfg.UserID, accepted.UserID)
	assert.Equal(t, types.NetworkUnprivileged, accepted.NetworkMode)
}

func TestValidate_RootWithoutUserNamespace(t *testing.T) {
	cfg := validMinimal()
	cfg.UserID = 0
	cfg.UserNamespace = false

	_, rej := Validate(cfg)
	require.NotNil(t, rej)
	assert.Equal(t, InvalidUserNamespace, rej.Kind)
}

func TestValidate_SysAdminWithoutPrivileged(t *testing.T) {
	cfg := validMinimal()
	cfg.Capabilities = []string{"SYS_ADMIN"}
	cfg.Privileged = false

	_, rej := Validate(cfg)
	require.NotNil(t, rej)
	assert.Equal(t, InvalidCapabilities, rej.Kind)
}

func TestValidate_SysAdminAllowedWhenPrivileged(t *testing.T) {
	cfg := validMinimal()
	cfg.Capabilities = []string{"SYS_ADMIN"}
	cfg.Privileged = true

	_, rej := Validate(cfg)
	assert.Nil(t, rej)
}

func TestValidate_NetAdminRequiresNonUnprivilegedNetwork(t *testing.T) {
	cfg := validMinimal()
	cfg.Capabilities = []string{"NET_ADMIN"}
	cfg.NetworkMode = types.NetworkUnprivileged

	_, rej := Validate(cfg)
	require.NotNil(t, rej)
	assert.Equal(t, InvalidNetworkMode, rej.Kind)
}

func TestValidate_NetAdminAllowedWithRestrictedNetwork(t *testing.T) {
	cfg := validMinimal()
	cfg.Capabilities = []string{"NET_ADMIN"}
	cfg.NetworkMode = types.NetworkRestricted

	_, rej := Validate(cfg)
	assert.Nil(t, rej)
}

func TestValidate_PrivilegeEscapeWithoutNoNewPrivilegesOrUserNamespace(t *testing.T) {
	cfg := validMinimal()
	cfg.UserID = 1000
	cfg.UserNamespace = false
	cfg.NoNewPrivileges = false

	_, rej := Validate(cfg)
	require.NotNil(t, rej)
	assert.Equal(t, InvalidPrivilegeEscape, rej.Kind)
}

func TestValidate_NoNewPrivilegesFalseButUserNamespaceTrueIsFine(t *testing.T) {
	cfg := validMinimal()
	cfg.NoNewPrivileges = false
	cfg.UserNamespace = true

	_, rej := Validate(cfg)
	assert.Nil(t, rej)
}

func TestValidate_IsDeterministic(t *testing.T) {
	cfg := validMinimal()
	cfg.Capabilities = []string{"SYS_ADMIN"}

	a, rejA := Validate(cfg)
	b, rejB := Validate(cfg)
	assert.Equal(t, a, b)
	assert.Equal(t, rejA, rejB)
}

func TestValidate_CapabilityNameIsCaseAndPrefixInsensitive(t *testing.T) {
	cfg := validMinimal()
	cfg.Capabilities = []string{"cap_sys_admin"}

	_, rej := Validate(cfg)
	require.NotNil(t, rej)
	assert.Equal(t, InvalidCapabilities, rej.Kind)
}

func TestValidate_AcceptedConfigurationIsIndependentCopy(t *testing.T) {
	cfg := validMinimal()
	cfg.Capabilities = []string{"CHOWN"}

	accepted, rej := Validate(cfg)
	require.Nil(t, rej)
	accepted.Capabilities[0] = "mutated"
	assert.Equal(t, "CHOWN", cfg.Capabilities[0])
}

func TestKind_StringCoversEveryVariant(t *testing.T) {
	for k := Accepted; k <= InternalError; k++ {
		assert.NotEmpty(t, k.String())
	}
	assert.Equal(t, "internal error in gatekeeper", Kind(99).String())
}
