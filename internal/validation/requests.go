package validation

import (
	"github.com/hyperengineering/waypoint/internal/roadmap"
)

// Field limits for roadmap requests.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 4000
	MaxEmailLength       = 254
)

// voteActions lists accepted vote actions. Empty means upvote.
var voteActions = []string{string(roadmap.ActionUpvote), string(roadmap.ActionDownvote)}

// validateText runs the checks shared by free-text fields.
func validateText(c *Collector, field, value string, maxLen int) {
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, maxLen))
}

// ValidateSubmitRequest checks a feature suggestion before it is sent.
func ValidateSubmitRequest(req roadmap.SubmitRequest) []ValidationError {
	var c Collector

	c.Add(ValidateRequired("title", req.Title))
	validateText(&c, "title", req.Title, MaxTitleLength)

	c.Add(ValidateRequired("description", req.Description))
	validateText(&c, "description", req.Description, MaxDescriptionLength)

	if req.Email != nil {
		validateText(&c, "email", *req.Email, MaxEmailLength)
		c.Add(ValidateEmail("email", *req.Email))
	}

	return c.Errors()
}

// ValidateVoteRequest checks a vote before it is sent.
func ValidateVoteRequest(req roadmap.VoteRequest) []ValidationError {
	var c Collector

	c.Add(ValidatePositive("featureId", req.FeatureID))
	if req.Action != "" {
		c.Add(ValidateEnum("action", string(req.Action), voteActions))
	}

	return c.Errors()
}

// ValidateStatusFilter checks a status query parameter. Empty matches all.
func ValidateStatusFilter(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	allowed := make([]string, len(roadmap.Statuses))
	for i, s := range roadmap.Statuses {
		allowed[i] = string(s)
	}
	return ValidateEnum(field, value, allowed)
}
