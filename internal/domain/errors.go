package domain

import "errors"

var (
	ErrPollNotFound      = errors.New("poll not found")
	ErrDuplicatePoll     = errors.New("poll already exists")
	ErrAlreadyFinalized  = errors.New("poll already finalized")
	ErrStoreUnavailable  = errors.New("poll store unavailable")
	ErrMessageNotFound   = errors.New("message not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmptySuggestion   = errors.New("suggestion is empty")
	ErrSuggestionTooLong = errors.New("suggestion is too long")
	ErrNotLeader         = errors.New("not the leader")
)
