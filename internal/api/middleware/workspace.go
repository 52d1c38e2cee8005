// Package middleware provides the HTTP middleware stack: request
// logging, workspace extraction, and OpenTelemetry spans.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// WorkspaceKey is the context key for the workspace name.
const WorkspaceKey contextKey = "workspace"

// WorkspaceExtractor tags the request with its workspace. It checks the
// X-Workspace header, then the workspace query parameter, and falls
// back to "default". The workspace scopes stored records; it is a
// namespace, not an authentication boundary.
func WorkspaceExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workspace := strings.TrimSpace(r.Header.Get("X-Workspace"))
		if workspace == "" {
			workspace = strings.TrimSpace(r.URL.Query().Get("workspace"))
		}
		if workspace == "" {
			workspace = "default"
		}

		ctx := context.WithValue(r.Context(), WorkspaceKey, workspace)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetWorkspace retrieves the workspace name from the request context.
func GetWorkspace(ctx context.Context) string {
	if v, ok := ctx.Value(WorkspaceKey).(string); ok {
		return v
	}
	return "default"
}
