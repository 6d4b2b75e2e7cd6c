package domain

import "errors"

var (
	ErrQueueNotFound     = errors.New("boost_queue_not_found")
	ErrEntryNotFound     = errors.New("boost_entry_not_found")
	ErrNoActiveEntry     = errors.New("boost_no_active_entry")
	ErrActiveEntryExists = errors.New("boost_active_entry_exists")
	ErrAlreadyQueued     = errors.New("boost_business_already_queued")
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidBusiness   = errors.New("invalid_business")
	ErrInvalidConfig     = errors.New("boost service missing required dependency")
)
