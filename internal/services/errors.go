package services

import "errors"

var (
	ErrPackNotFound = errors.New("pack not found")
	ErrUserNotFound = errors.New("user not found")
	ErrMissingIDs   = errors.New("ids parameter is required")
	ErrTooManyIDs   = errors.New("too many ids requested")
)
