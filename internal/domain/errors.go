package domain

import "errors"

var (
	// Journal/config errors
	ErrJournalNotFound     = errors.New("journal not found")
	ErrIncompleteIssnPpn   = errors.New("incomplete issn/ppn pair")
	ErrNoSuperiorLinkage   = errors.New("neither online nor print issn/ppn pair is complete")

	// Download errors
	ErrMissingHost   = errors.New("url has no host")
	ErrRobotsDisallowed = errors.New("robots.txt disallows this path")

	// Conversion errors
	ErrEmptyTitle      = errors.New("record has no title")
	ErrEmptyURL        = errors.New("record has no url")
	ErrUndesiredType   = errors.New("item type is undesired")
	ErrExcludedByFilter = errors.New("item excluded by configured filter")
	ErrOnlineFirst     = errors.New("record skipped as online-first")
	ErrEarlyView       = errors.New("record skipped as early view")
	ErrAlreadyDelivered = errors.New("record already delivered")
)
