package user

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrOwnerExists     = errors.New("owner already exists")
)
