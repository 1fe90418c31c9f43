package domain

import "errors"

// ErrInvalidArgument is an error thrown when request parameters are malformed
var ErrInvalidArgument = errors.New("invalid argument")

// ErrSessionNotFound is an error thrown when session is not found
var ErrSessionNotFound = errors.New("session not found")

// ErrChunkNotFound is an error thrown when a chunk is not found
var ErrChunkNotFound = errors.New("chunk not found")

// ErrFileNotFound is an error thrown when a finalized file is not found
var ErrFileNotFound = errors.New("file not found")

// ErrSessionExpired is an error thrown when the session deadline has passed
var ErrSessionExpired = errors.New("session expired")

// ErrInvalidState is an error thrown when the operation is illegal for the session status
var ErrInvalidState = errors.New("invalid session state")

// ErrDigestMismatch is an error thrown when digests mismatch
var ErrDigestMismatch = errors.New("digest mismatch")

// ErrSizeMismatch is an error thrown when sizes mismatch
var ErrSizeMismatch = errors.New("size mismatch")

// ErrIncompleteUpload is an error thrown when the chunk set is incomplete at merge
var ErrIncompleteUpload = errors.New("incomplete chunk set")

// ErrChunkExists is an error thrown by the store when a chunk is already present
var ErrChunkExists = errors.New("chunk already exists")

// ErrStorage is an error thrown when the underlying byte store fails
var ErrStorage = errors.New("storage failure")

// ErrExtensionNotAllowed is an error thrown when the file extension is not whitelisted
var ErrExtensionNotAllowed = errors.New("extension not allowed")

// ErrFileSizeTooBig is an error thrown when file size is too big
var ErrFileSizeTooBig = errors.New("file size too big")
