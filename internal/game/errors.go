package game

import "errors"

var (
	ErrNicknameRequired   = errors.New("nickname-required")
	ErrNicknameTooLong    = errors.New("nickname-too-long")
	ErrDuplicateNickname  = errors.New("duplicate-nickname")
	ErrLobbyFull          = errors.New("lobby-full")
	ErrAlreadyJoined      = errors.New("already-joined")
	ErrUnknownPlayer      = errors.New("unknown-player")
	ErrInvalidResumeToken = errors.New("invalid-resume-token")
	ErrBadRequestFormat   = errors.New("bad-request-format")
	ErrUnexpected         = errors.New("unexpected-error")
)

var (
	ErrSendBufferFull  = errors.New("send-buffer-full")
	ErrSessionStopped  = errors.New("session-stopped")
	ErrUnknownCommand  = errors.New("unknown-command")
	ErrNoActivePlayers = errors.New("no-active-players")
)
