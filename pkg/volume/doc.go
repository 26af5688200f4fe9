/*
Package volume provides the local volume driver that backs the Volume
entity's on-disk data.

A volume row in the state store is metadata only — id, name, driver,
mountpoint, labels. This package is what turns that row into an actual
directory on disk that a container's bundle can bind-mount.

# Driver interface

	type Driver interface {
		Create(volume *types.Volume) error
		Delete(volume *types.Volume) error
		Mount(volume *types.Volume) (string, error)
		Unmount(volume *types.Volume) error
		GetPath(volume *types.Volume) string
	}

Only "local" is implemented: a plain directory per volume, named by the
volume's id, under a configurable base path (DefaultVolumesPath unless
overridden). Manager dispatches to a Driver by the row's Driver field, so
a caller that references an unregistered driver name gets an error
rather than silent local-driver fallback.

# Lifecycle

Create makes the backing directory and records its host path onto
Volume.Mountpoint. Delete removes it, idempotently — a volume whose
directory is already gone is not an error, mirroring the convention
pkg/runtimeshim uses for delete-on-an-already-deleted container. Mount
resolves and verifies the directory exists so a caller can add it as an
ExtraMounts bind source; Unmount is a no-op since the directory's data
outlives the container using it.
*/
package volume
