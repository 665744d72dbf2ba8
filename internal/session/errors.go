package session

import "errors"

var (
	// ErrNoModel means user input arrived before any backend and
	// model were selected.
	ErrNoModel = errors.New("no model selected")

	// ErrApprovalPending means the last reply is still waiting on
	// tool call decisions; only an approval input is accepted.
	ErrApprovalPending = errors.New("tool call approvals pending")

	// ErrNoApprovalsPending means an approval input arrived with
	// nothing to resolve.
	ErrNoApprovalsPending = errors.New("no tool call approvals pending")

	// ErrApprovalMismatch means the approval input did not resolve
	// every pending call exactly once. The engine rejects rather than
	// executing a call the human never dispositioned.
	ErrApprovalMismatch = errors.New("approvals do not match pending tool calls")
)
