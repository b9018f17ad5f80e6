package entity

import "errors"

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedAsset    = errors.New("asset not supported")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientFee     = errors.New("insufficient fee balance")
	ErrUnauthorized        = errors.New("caller not authorized")
	ErrPaused              = errors.New("operations paused")
	ErrTransferFailed      = errors.New("token transfer failed")
	ErrInvalidMessage      = errors.New("invalid bridge message")
	ErrDuplicateMessage    = errors.New("message already processed")
	ErrAdapterFailure      = errors.New("external adapter failure")
)
