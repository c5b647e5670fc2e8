package tournament

import "errors"

var (
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrTournamentFull      = errors.New("tournament is full")
	ErrTournamentCompleted = errors.New("tournament already completed")
	ErrTournamentDeleted   = errors.New("tournament deleted")
	ErrAlreadyStarted      = errors.New("tournament already started")
	ErrNotWaiting          = errors.New("tournament is not waiting for players")
	ErrNotActive           = errors.New("tournament is not active")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrDuplicateNickname   = errors.New("nickname already taken")
	ErrEmptyNickname       = errors.New("nickname is required")
	ErrUnknownPlayer       = errors.New("player not registered")
	ErrInvalidRound        = errors.New("no round in progress")
	ErrInvalidPosition     = errors.New("position out of range")
	ErrPositionTaken       = errors.New("position already claimed")
	ErrAlreadySubmitted    = errors.New("position already submitted this round")
	ErrSelfVote            = errors.New("players cannot vote for themselves")
	ErrAlreadyVoted        = errors.New("vote already cast this round")
	ErrUnknownTarget       = errors.New("voted player not registered")
	ErrRoundIncomplete     = errors.New("round is not complete")
)
