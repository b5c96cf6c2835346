package session

import "errors"

// Sentinel errors used for wrapping so callers can classify via errors.Is.
var (
	ErrConnect    = errors.New("connect")
	ErrRead       = errors.New("read")
	ErrWrite      = errors.New("write")
	ErrRemoteHung = errors.New("remote closed")
	ErrProtocol   = errors.New("protocol violation")
)
