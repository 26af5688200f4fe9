/*
Package storage is the single source of truth for container, image,
network, volume, and lock state: one SQLite database per engine instance,
opened with WAL journalling where the filesystem supports it and the
DELETE journal otherwise (the common case on NFS/CIFS/9p/FUSE mounts,
where WAL's shared-memory mmap is unreliable).

Foreign keys are on; the only enforced relationship is container_networks,
which cascades on either endpoint's deletion. A container's state column
is constrained to created/running/paused/stopped at the schema level, so
an invalid state can never be written even by a bug elsewhere in the
engine.

Advisory locks (AcquireLock/ReleaseLock) coordinate independent client
processes around a (resourceType, resourceID) pair. A lock held by a
process that no longer exists is reaped automatically the next time any
process attempts to acquire a lock — there is no separate garbage
collector.
*/
package storage
