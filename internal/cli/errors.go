package cli

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/aidanlsb/skillsync/internal/mutate"
	"github.com/aidanlsb/skillsync/internal/statelock"
	"github.com/aidanlsb/skillsync/internal/syncer"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts and agents.
const (
	ErrConfigInvalid = "CONFIG_INVALID"
	ErrStateInvalid  = "STATE_INVALID"
	ErrStateLocked   = "STATE_LOCKED"

	ErrSkillNotFound   = "SKILL_NOT_FOUND"
	ErrRefAmbiguous    = "REF_AMBIGUOUS"
	ErrSkillConflict   = "SKILL_CONFLICT"
	ErrMigrationFailed = "MIGRATION_FAILED"

	ErrConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrPathNotAllowed       = "PATH_NOT_ALLOWED"
	ErrDestinationExists    = "DESTINATION_EXISTS"
	ErrLegacyReadOnly       = "LEGACY_READ_ONLY"
	ErrInvalidState         = "INVALID_STATE"
	ErrBatchFailed          = "BATCH_FAILED"

	ErrValidationFailed = "VALIDATION_FAILED"
	ErrHistoryError     = "HISTORY_ERROR"
	ErrWatchFailed      = "WATCH_FAILED"

	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"
	ErrInternal        = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnSyncWarning    = "SYNC_WARNING"
	WarnResyncFailed   = "RESYNC_FAILED"
	WarnHistoryFailed  = "HISTORY_UNAVAILABLE"
	WarnStateNotSynced = "STATE_NOT_SYNCED"
)

// cliError is an error that already carries its response code.
type cliError struct {
	Code       string
	Message    string
	Suggestion string
	Details    interface{}
	Err        error
}

func (e *cliError) Error() string {
	return e.Message
}

func (e *cliError) Unwrap() error {
	return e.Err
}

// describeError maps an error to its stable code and suggestion.
func describeError(err error) ErrorInfo {
	var ce *cliError
	if errors.As(err, &ce) {
		return ErrorInfo{Code: ce.Code, Message: ce.Message, Details: ce.Details, Suggestion: ce.Suggestion}
	}

	info := ErrorInfo{Code: ErrInternal, Message: err.Error()}

	var conflict *syncer.ConflictError
	var migration *syncer.MigrationError
	var merr *multierror.Error
	switch {
	case errors.As(err, &merr):
		info.Code = ErrBatchFailed
		info.Message = fmt.Sprintf("%d of the requested operations failed", len(merr.Errors))
	case errors.As(err, &conflict):
		info.Code = ErrSkillConflict
		info.Details = conflictDetails(conflict)
		info.Suggestion = "Remove or rename all but one copy of each conflicting skill, then run 'skillsync sync'"
	case errors.As(err, &migration):
		info.Code = ErrMigrationFailed
		info.Details = map[string]string{"skill_key": migration.Key, "from": migration.From, "to": migration.To}
		info.Suggestion = "Check both locations by hand; the move may be partially applied"
	case errors.Is(err, statelock.ErrLocked):
		info.Code = ErrStateLocked
		info.Suggestion = "Wait for the other sync (or 'skillsync watch') to finish"
	case errors.Is(err, mutate.ErrConfirmationRequired):
		info.Code = ErrConfirmationRequired
		info.Suggestion = "Re-run with --confirm to apply"
	case errors.Is(err, mutate.ErrOutsideRoots), errors.Is(err, mutate.ErrProtectedPath):
		info.Code = ErrPathNotAllowed
	case errors.Is(err, mutate.ErrDestinationExists):
		info.Code = ErrDestinationExists
	case errors.Is(err, mutate.ErrLegacyReadOnly):
		info.Code = ErrLegacyReadOnly
		info.Suggestion = "Legacy skills under ~/.config/agents/skills are managed by hand"
	case errors.Is(err, mutate.ErrEmptySlug):
		info.Code = ErrInvalidInput
	case errors.Is(err, mutate.ErrMissingSource):
		info.Code = ErrSkillNotFound
		info.Suggestion = "Run 'skillsync sync' to refresh the skill list"
	case errors.Is(err, mutate.ErrNotProject), errors.Is(err, mutate.ErrNotArchived), errors.Is(err, mutate.ErrAlreadyArchived):
		info.Code = ErrInvalidState
	}
	return info
}

func conflictDetails(err *syncer.ConflictError) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(err.Conflicts))
	for _, c := range err.Conflicts {
		entry := map[string]interface{}{
			"skill_key": c.Key,
			"scope":     c.Scope,
			"paths":     c.Paths,
		}
		if c.Workspace != "" {
			entry["workspace"] = c.Workspace
		}
		out = append(out, entry)
	}
	return out
}
