package ocispec

import "strings"

// privilegedCapabilities is the fixed set granted in privileged mode. It
// ignores any caller-supplied cap_add/cap_drop entirely.
var privilegedCapabilities = []string{
	"CAP_AUDIT_CONTROL", "CAP_AUDIT_READ", "CAP_AUDIT_WRITE", "CAP_BLOCK_SUSPEND",
	"CAP_CHOWN", "CAP_DAC_OVERRIDE", "CAP_DAC_READ_SEARCH", "CAP_FOWNER", "CAP_FSETID",
	"CAP_IPC_LOCK", "CAP_IPC_OWNER", "CAP_KILL", "CAP_LEASE", "CAP_LINUX_IMMUTABLE",
	"CAP_MAC_ADMIN", "CAP_MAC_OVERRIDE", "CAP_MKNOD", "CAP_NET_ADMIN", "CAP_NET_BIND_SERVICE",
	"CAP_NET_BROADCAST", "CAP_NET_RAW", "CAP_SETFCAP", "CAP_SETGID", "CAP_SETPCAP",
	"CAP_SETUID", "CAP_SYSLOG", "CAP_SYS_ADMIN", "CAP_SYS_BOOT", "CAP_SYS_CHROOT",
	"CAP_SYS_MODULE", "CAP_SYS_NICE", "CAP_SYS_PACCT", "CAP_SYS_PTRACE", "CAP_SYS_RAWIO",
	"CAP_SYS_RESOURCE", "CAP_SYS_TIME", "CAP_SYS_TTY_CONFIG", "CAP_WAKE_ALARM",
}

// baselineCapabilities is the OCI default unprivileged set, before cap_add
// and cap_drop are applied.
var baselineCapabilities = []string{
	"CAP_CHOWN", "CAP_DAC_OVERRIDE", "CAP_FSETID", "CAP_FOWNER", "CAP_MKNOD",
	"CAP_NET_RAW", "CAP_SETGID", "CAP_SETUID", "CAP_SETFCAP", "CAP_SETPCAP",
	"CAP_NET_BIND_SERVICE", "CAP_SYS_CHROOT", "CAP_KILL", "CAP_AUDIT_WRITE",
}

// resolveCapabilities computes the bounding/effective/inheritable/
// permitted/ambient capability list. In privileged mode it is the fixed
// privileged list, full stop — cap_add/cap_drop never apply. Otherwise it
// is the baseline with requested capabilities unioned in, then any
// explicitly dropped capability subtracted — drop always wins over add.
func resolveCapabilities(privileged bool, capAdd, capDrop []string) []string {
	if privileged {
		return append([]string(nil), privilegedCapabilities...)
	}

	caps := append([]string(nil), baselineCapabilities...)
	for _, c := range capAdd {
		name := normaliseCapability(c)
		if !containsCapability(caps, name) {
			caps = append(caps, name)
		}
	}

	drop := make(map[string]bool, len(capDrop))
	for _, c := range capDrop {
		drop[normaliseCapability(c)] = true
	}

	out := caps[:0:0]
	for _, c := range caps {
		if !drop[c] {
			out = append(out, c)
		}
	}
	return out
}

func normaliseCapability(c string) string {
	name := strings.ToUpper(c)
	if strings.HasPrefix(name, "CAP_") {
		return name
	}
	return "CAP_" + name
}

func containsCapability(caps []string, name string) bool {
	for _, c := range caps {
		if c == name {
			return true
		}
	}
	return false
}
