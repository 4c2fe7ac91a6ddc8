package rollout

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// fileClose closes the File, rendering it unusable for I/O. If there
// is an error, it will be of type *PathError.
func fileClose(pathname string, fp *os.File) error {
	err := fp.Close()
	switch err.(type) {
	case nil:
		return nil
	case *os.PathError:
		return err
	default:
		return &os.PathError{Op: "close", Path: pathname, Err: err}
	}
}

// fileOpen opens the named file with specified flag (O_RDONLY
// etc.). If the file does not exist, and the O_CREATE flag is passed,
// it is created with mode perm (before umask). Transient failures are
// retried. If there is an error, it will be of type *PathError.
func fileOpen(pathname string, flags int, mode os.FileMode) (*os.File, error) {
	var fp *os.File
	err := retry(func() error {
		var err error
		fp, err = os.OpenFile(pathname, flags, mode)
		return err
	})
	switch err.(type) {
	case nil:
		return fp, nil
	case *os.PathError:
		return nil, err
	default:
		return nil, &os.PathError{Op: "open", Path: pathname, Err: err}
	}
}

// fileRename renames (moves) oldpath to newpath. If newpath already
// exists and is not a directory, Rename replaces it. Transient failures
// are retried. If there is an error, it will be of type *LinkError.
func fileRename(oldPath, newPath string) error {
	err := retry(func() error { return os.Rename(oldPath, newPath) })
	switch err.(type) {
	case nil:
		return nil
	case *os.LinkError:
		return err
	default:
		return &os.LinkError{
			Op:  "rename",
			Old: oldPath,
			New: newPath,
			Err: err,
		}
	}
}

// fileRemove removes the named file or empty directory. Transient
// failures are retried.
func fileRemove(pathname string) error {
	return retry(func() error { return os.Remove(pathname) })
}

// fileSync commits the current contents of the file to stable storage.
func fileSync(pathname string, fp *os.File) error {
	err := retry(fp.Sync)
	switch err.(type) {
	case nil:
		return nil
	case *os.PathError:
		return err
	default:
		return &os.PathError{Op: "sync", Path: pathname, Err: err}
	}
}

// readDirNames returns the names of every entry in the directory, in
// directory order.
func readDirNames(dirname string) ([]string, error) {
	var names []string
	err := retry(func() error {
		fp, err := os.Open(dirname)
		if err != nil {
			return err
		}
		names, err = fp.Readdirnames(-1)
		_ = fp.Close()
		return err
	})
	return names, err
}

// isTransient reports whether err is an interrupted system call or a
// would-block condition, both of which are retried rather than
// reported.
func isTransient(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

// retry invokes fn until it returns nil or a non-transient error.
func retry(fn func() error) error {
	for {
		err := fn()
		if err == nil || !isTransient(err) {
			return err
		}
	}
}

// writeFull writes all of p to w, resuming after short writes and
// transient errors. It returns the number of bytes written, which is
// less than len(p) only when err is not nil.
func writeFull(w io.Writer, p []byte) (int, error) {
	var written int
	for written < len(p) {
		nw, err := w.Write(p[written:])

		if nw < 0 || nw > len(p)-written {
			if err != nil {
				return written, err
			}
			// NOTE: io.errInvalidWrite is not exported
			return written, errors.New("invalid write result")
		}

		written += nw

		if err != nil {
			if isTransient(err) {
				continue
			}
			return written, err
		}
		if nw == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
