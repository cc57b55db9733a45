package repository

import "errors"

var (
	ErrNavigationFailed   = errors.New("navigation failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrRunInProgress      = errors.New("scrape run already in progress")
	ErrNotFound           = errors.New("not found")
)
