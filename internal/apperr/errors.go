package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrOutsideFolders = errors.New("document is outside every base folder")
	ErrSnapshotSource = errors.New("document is a draft or published snapshot")
	ErrNotDocument    = errors.New("not a markdown document")
)
