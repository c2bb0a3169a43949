package domain

import (
	"net/http"
	"time"
)

// ActivityLog is one entry of the operator activity trail.
type ActivityLog struct {
	ID         string
	ActorID    string
	ActorName  string
	Action     string // resource.verb, e.g. sale.create
	Method     string
	Route      string // matched route pattern
	Path       string
	ResourceID string
	RequestID  string
	IPAddress  string
	UserAgent  string
	Status     ActivityStatus
	StatusCode int
	CreatedAt  time.Time
}

// ActivityStatus summarizes how a request ended.
type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusFailure ActivityStatus = "failure"
	ActivityStatusError   ActivityStatus = "error"
)

// ActivityStatusFromCode maps an HTTP status code to an ActivityStatus.
func ActivityStatusFromCode(code int) ActivityStatus {
	switch {
	case code >= http.StatusInternalServerError:
		return ActivityStatusError
	case code >= http.StatusBadRequest:
		return ActivityStatusFailure
	default:
		return ActivityStatusSuccess
	}
}

// ActivityVerb names what a request method does to a resource.
func ActivityVerb(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "view"
	}
}

// IsRead reports whether the entry records a request that changed nothing.
func (a *ActivityLog) IsRead() bool {
	return a.Method == http.MethodGet || a.Method == http.MethodHead
}
