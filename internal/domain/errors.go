package domain

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrRunNotFound       = errors.New("reconciliation run not found")
	ErrInvalidSource     = errors.New("invalid invoice source")
	ErrInvalidPeriod     = errors.New("invalid return period, expected MM-YYYY")
	ErrNoInvoices        = errors.New("run has no invoices on either side")
	ErrRunNotQueueable   = errors.New("run cannot be queued in its current status")
	ErrRunNotCompleted   = errors.New("run has not completed matching")
	ErrInvalidConfig     = errors.New("invalid reconciliation configuration")
	ErrUploadFailed      = errors.New("report upload to storage failed")
	ErrEmailSendFailed   = errors.New("notification email send failed")
	ErrRunAlreadyRunning = errors.New("run is already being matched")
)
