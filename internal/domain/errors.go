package domain

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicateSlug      = errors.New("duplicate slug")
	ErrEmptySlug          = errors.New("empty slug")
	ErrExhaustedPinSpace  = errors.New("pin space exhausted")
	ErrScreenNotFound     = errors.New("screen not found")
	ErrPublicRoomNotFound = errors.New("public room not found")
	ErrRoomOffline        = errors.New("room offline")
)
