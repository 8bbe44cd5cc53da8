package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrAmbiguousAsset = errors.New("ambiguous asset")
	ErrDecode         = errors.New("image decode failed")
	ErrEncode         = errors.New("image encode failed")
	ErrWrite          = errors.New("output write failed")
)
