package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *SwarmError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *SwarmError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

func SessionNotFound(projectID, sessionID string) *SwarmError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found in project '%s'", sessionID, projectID)).
		WithDetail("project", projectID).
		WithDetail("session", sessionID)
}

func ProjectNotFound(projectID string) *SwarmError {
	return New(ErrCodeProjectNotFound, fmt.Sprintf("project '%s' not found", projectID)).
		WithDetail("project", projectID)
}

// StoreUnavailable reports a storage backend that cannot be read at all.
func StoreUnavailable(location string, cause error) *SwarmError {
	return Wrap(cause, ErrCodeStoreUnavailable, fmt.Sprintf("session store unavailable: %s", location)).
		WithDetail("location", location)
}

// RecordMalformed describes a record that was dropped because it failed to parse.
func RecordMalformed(path string, cause error) *SwarmError {
	return Wrap(cause, ErrCodeRecordMalformed, fmt.Sprintf("malformed record: %s", path)).
		WithDetail("path", path)
}

func ForbiddenPath(path string) *SwarmError {
	return New(ErrCodeForbiddenPath, fmt.Sprintf("path outside planning directories: %s", path)).
		WithDetail("path", path)
}

func ArtifactsNotFound(dir string) *SwarmError {
	return New(ErrCodeArtifactsNotFound, fmt.Sprintf("no .opencode directory under %s", dir)).
		WithDetail("dir", dir)
}

// InvalidInput creates an error for a bad argument or field.
func InvalidInput(field, reason string) *SwarmError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}
