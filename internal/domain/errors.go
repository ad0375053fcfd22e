package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrInvalidPhase     = errors.New("invalid action for current phase")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrNotCreator       = errors.New("only the room creator can perform this action")
	ErrNotLeader        = errors.New("only the current leader can perform this action")
	ErrNotAssassin      = errors.New("only an assassin can perform this action")
	ErrNotOnTeam        = errors.New("player is not on the mission team")
	ErrAlreadyVoted     = errors.New("already voted")
	ErrWrongTeamSize    = errors.New("wrong team size")
	ErrWrongPlayerCount = errors.New("player count does not match room capacity")
	ErrInvalidConfig    = errors.New("invalid room configuration")
)
