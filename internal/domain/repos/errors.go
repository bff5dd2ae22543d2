package repos

import "errors"

// ErrNotFound indicates the referenced repo_name does not exist.
var ErrNotFound = errors.New("repository not found")
