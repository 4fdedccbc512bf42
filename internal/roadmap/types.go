package roadmap

import (
	"fmt"
	"time"
)

// Status is the normalized lifecycle stage of a roadmap feature.
type Status string

const (
	StatusBacklog     Status = "backlog"
	StatusInProgress  Status = "in_progress"
	StatusUnderReview Status = "under_review"
	StatusReleased    Status = "released"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusUnderReview, StatusReleased}

// Feature is a row of the roadmap features table.
type Feature struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Upvotes     int64      `json:"upvotes"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	IsPriority  bool       `json:"isPriority,omitempty"`

	// RawStatus is the status as stored remotely, before normalization.
	RawStatus string `json:"-"`
}

// StatusIn normalizes the feature's stored status with table t.
func (f Feature) StatusIn(t StatusTable) Status {
	if f.RawStatus == "" {
		return f.Status
	}
	return t.Normalize(f.RawStatus)
}

// SubmitRequest is a new feature suggestion.
type SubmitRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Email       *string `json:"email,omitempty"`
}

// VoteAction selects the direction of a vote.
type VoteAction string

const (
	ActionUpvote   VoteAction = "upvote"
	ActionDownvote VoteAction = "downvote"
)

// VoteRequest asks to move a feature's upvote counter by one.
type VoteRequest struct {
	FeatureID int64      `json:"featureId"`
	Action    VoteAction `json:"action,omitempty"`
}

// Outcome is the terminal state of a write operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomeAmbiguous means the remote answered 2xx but the written row
	// could not be read back from the response.
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeFailure   Outcome = "failure"
)

// FailureKind classifies why an operation failed.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureConfiguration FailureKind = "configuration"
	FailureUpstream      FailureKind = "upstream"
	FailureProcessing    FailureKind = "processing"
	FailureInvalid       FailureKind = "invalid"
)

// SubmitResult is the outcome of Service.Submit.
type SubmitResult struct {
	Success   bool    `json:"success"`
	Outcome   Outcome `json:"outcome"`
	FeatureID *int64  `json:"featureId,omitempty"`
	Error     string  `json:"error,omitempty"`
	Status    int     `json:"status,omitempty"`

	Failure FailureKind `json:"-"`
	Err     error       `json:"-"`
}

// VoteResult is the outcome of Service.Vote.
type VoteResult struct {
	Success   bool    `json:"success"`
	Outcome   Outcome `json:"outcome"`
	FeatureID int64   `json:"featureId"`
	Upvotes   *int64  `json:"upvotes,omitempty"`
	Error     string  `json:"error,omitempty"`
	Status    int     `json:"status,omitempty"`

	Failure FailureKind `json:"-"`
	Err     error       `json:"-"`
}

// Error is the failure shape of the List operation.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	Kind FailureKind `json:"-"`
	Err  error       `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
