package domain

import (
	"strings"
	"time"
)

// Severity colours a snackbar or notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps raw to a known severity, defaulting to info.
func ParseSeverity(raw string) Severity {
	switch s := Severity(strings.ToLower(strings.TrimSpace(raw))); s {
	case SeveritySuccess, SeverityError, SeverityWarning:
		return s
	default:
		return SeverityInfo
	}
}

// How long a snackbar stays up.
const (
	SnackbarShort  = 2 * time.Second
	SnackbarMedium = 4 * time.Second
	SnackbarLong   = 6 * time.Second
)

// Snackbar is the single transient message slot. Hiding keeps Message so a
// closing transition can still render it.
type Snackbar struct {
	Open     bool
	Message  string
	Severity Severity
}

// Confirm dialog defaults.
const (
	DefaultConfirmText  = "Confirm"
	DefaultCancelText   = "Cancel"
	DefaultConfirmColor = "error"
)

// ConfirmOptions describe a confirmation request.
type ConfirmOptions struct {
	Title        string
	Message      string
	ConfirmText  string
	CancelText   string
	ConfirmColor string
}

// WithDefaults fills empty button texts and colour.
func (o ConfirmOptions) WithDefaults() ConfirmOptions {
	if o.ConfirmText == "" {
		o.ConfirmText = DefaultConfirmText
	}
	if o.CancelText == "" {
		o.CancelText = DefaultCancelText
	}
	if o.ConfirmColor == "" {
		o.ConfirmColor = DefaultConfirmColor
	}
	return o
}

// ConfirmDialog is the single confirmation slot. ActionID names the pending
// action in the table owned by whoever opened the dialog.
type ConfirmDialog struct {
	Open         bool
	Title        string
	Message      string
	ActionID     string
	ConfirmText  string
	CancelText   string
	ConfirmColor string
}

// ClosedDialog is the dialog before anything is requested.
func ClosedDialog() ConfirmDialog {
	return ConfirmDialog{
		ConfirmText:  DefaultConfirmText,
		CancelText:   DefaultCancelText,
		ConfirmColor: DefaultConfirmColor,
	}
}

// Notification is an entry in the notification list.
type Notification struct {
	ID        string
	Title     string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}
