package mutate

import (
	"errors"

	"github.com/aidanlsb/skillsync/internal/paths"
)

var (
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrDestinationExists    = errors.New("a skill already exists at the destination")
	ErrEmptySlug            = errors.New("title does not produce a usable skill key")
	ErrLegacyReadOnly       = errors.New("legacy skills are read-only")
	ErrNotProject           = errors.New("only project skills can be promoted")
	ErrNotArchived          = errors.New("skill is not archived")
	ErrAlreadyArchived      = errors.New("skill is already archived")
	ErrMissingSource        = errors.New("skill source does not exist")

	ErrOutsideRoots  = paths.ErrOutsideRoots
	ErrProtectedPath = paths.ErrProtectedPath
)
