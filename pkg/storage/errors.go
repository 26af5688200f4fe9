package storage

import "errors"

// Sentinel errors returned by Store methods. Use errors.Is to test for
// these; wrapped database errors still satisfy errors.Is through %w.
var (
	ErrContainerNotFound      = errors.New("storage: container not found")
	ErrContainerAlreadyExists = errors.New("storage: container already exists")
	ErrImageNotFound          = errors.New("storage: image not found")
	ErrImageAlreadyExists     = errors.New("storage: image already exists")
	ErrNetworkNotFound        = errors.New("storage: network not found")
	ErrNetworkAlreadyExists   = errors.New("storage: network already exists")
	ErrVolumeNotFound         = errors.New("storage: volume not found")
	ErrVolumeAlreadyExists    = errors.New("storage: volume already exists")
	ErrLockHeld               = errors.New("storage: lock already held")
)
