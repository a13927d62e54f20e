package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	adminSubjectKey contextKey = "adminSubject"
)

// WithAdminSubject adds the authenticated admin's subject to the request context
func WithAdminSubject(r *http.Request, subject string) *http.Request {
	ctx := context.WithValue(r.Context(), adminSubjectKey, subject)
	return r.WithContext(ctx)
}

// GetAdminSubject retrieves the admin subject from context, returns empty string if not found
func GetAdminSubject(r *http.Request) string {
	subject, _ := r.Context().Value(adminSubjectKey).(string)
	return subject
}
