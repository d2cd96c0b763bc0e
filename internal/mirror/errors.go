package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"
)

// Kind classifies a sync failure.
type Kind string

const (
	// KindRemoteUnreachable covers network, DNS, auth and timeout failures
	// talking to the remote.
	KindRemoteUnreachable Kind = "remote_unreachable"
	// KindLocalIO covers permission, disk-full and other local filesystem
	// failures.
	KindLocalIO Kind = "local_io"
	// KindUnrecoverable means the mirror could not be rebuilt even after a
	// fresh clone.
	KindUnrecoverable Kind = "unrecoverable"
)

// SyncError is returned by every Manager operation that fails.
type SyncError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("mirror %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *SyncError of kind k.
func IsKind(err error, k Kind) bool {
	var se *SyncError
	return errors.As(err, &se) && se.Kind == k
}

// ErrNoCloneURL is reported when a project has neither SSH nor HTTPS URL.
var ErrNoCloneURL = errors.New("project has no clone URL")

// remoteMarkers are git stderr fragments that point at the remote side.
var remoteMarkers = []string{
	"could not resolve host",
	"could not read from remote repository",
	"authentication failed",
	"permission denied (publickey",
	"repository not found",
	"does not appear to be a git repository",
	"does not exist",
	"unable to access",
	"connection timed out",
	"connection refused",
	"host key verification failed",
	"couldn't find remote ref",
	"not found in upstream",
	"early eof",
}

// localMarkers are git stderr fragments caused by the local filesystem.
var localMarkers = []string{
	"no space left on device",
	"permission denied",
	"read-only file system",
	"disk quota exceeded",
}

// classify maps an error to a Kind. ok is false when the error says nothing
// about either side, which callers treat as a corrupt mirror.
func classify(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindRemoteUnreachable, true
	}

	var gitErr *GitError
	if errors.As(err, &gitErr) {
		out := strings.ToLower(gitErr.Output)
		for _, m := range remoteMarkers {
			if strings.Contains(out, m) {
				return KindRemoteUnreachable, true
			}
		}
		for _, m := range localMarkers {
			if strings.Contains(out, m) {
				return KindLocalIO, true
			}
		}
		return "", false
	}

	var pathErr *fs.PathError
	var linkErr *os.LinkError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) ||
		errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EROFS) {
		return KindLocalIO, true
	}
	return "", false
}
