package minigame

import "errors"

var ErrUnknownType = errors.New("unknown-mini-game-type")
