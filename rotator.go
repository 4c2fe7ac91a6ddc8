package rollout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// NOTE: A Rotator tracks how many bytes it writes to the current log
// file, but does not track whether any other process has written to
// the same file or renamed any of the numbered log files after it
// scanned the directory.

const (
	// CurrentName is the base name of the file a Rotator appends to.
	CurrentName = "current"

	// ReadBufferSize is the largest number of bytes ReadFrom consumes
	// from its source at a time. Because a rotation waits for a
	// newline inside a single read, it also bounds how much data is
	// examined when looking for a place to split.
	ReadBufferSize = 1024

	defaultMaxBytes = 10240 * 1024 // 10 MiB
	defaultKeep     = 5
	defaultFileMode = 0644
)

// Kilobytes returns the number of bytes in the specified amount of
// kilobytes. Amounts too large to represent are clamped to
// math.MaxInt64.
func Kilobytes(kilobytes uint64) int64 {
	if kilobytes > math.MaxInt64/1024 {
		return math.MaxInt64
	}
	return int64(kilobytes) * 1024
}

// Config provides fields to customize behavior of a Rotator.
type Config struct {
	// Directory is an optional directory holding the current log file
	// and all rotated log files. When this value is the empty string,
	// the Rotator will use the current working directory at the time
	// the Rotator was created. The directory must already exist.
	Directory string

	// Prefix is prepended to the index of every rotated log file,
	// which is named {Prefix}{index}.log. It may be the empty string
	// but must not contain a path separator.
	Prefix string

	// MaxBytes is an optional size, in bytes, at or above which the
	// current log file is rotated at the next newline. When this value
	// is zero, the Rotator will use a default of 10 MiB.
	MaxBytes int64

	// Keep is an optional number of rotated log files to retain. When
	// this value is zero, the Rotator will retain 5 files. When this
	// value is negative, the Rotator removes each rotated file as soon
	// as it is created.
	Keep int

	// RotateOnStart causes a non-empty current log file to be rotated
	// before anything is written to it. An empty current log file is
	// never rotated.
	RotateOnStart bool

	// IgnoreScanErrors causes NewRotator to start with an empty history
	// when the directory cannot be listed, rather than return an
	// error. Numbering then restarts at 1.
	IgnoreScanErrors bool

	// SyncOnRotate causes the current log file to be committed to
	// stable storage before it is closed and renamed.
	SyncOnRotate bool

	// FileMode is an optional OS file mode to use when creating new
	// files. When this value is zero, the Rotator will default to
	// 0644, which on UNIX, is equivalent to rw-r--r--.
	FileMode fs.FileMode

	// Logger is an optional destination for diagnostics. When nil, the
	// Rotator logs nothing.
	Logger hclog.Logger

	// Metrics is optionally updated as the Rotator writes and rotates,
	// and exported after every rotation and on Close.
	Metrics *Metrics
}

// Rotator appends everything written to it to a file named current,
// and when that file reaches a configured size, renames it to the next
// numbered log file at a newline boundary and starts a fresh current
// file. Old numbered log files beyond the retention count are removed.
//
// A Rotator is not safe for concurrent use.
type Rotator struct {
	cfg       Config
	retention *Retention
	log       hclog.Logger

	currentPath string
	filePointer *os.File
	fileSizeNow int64

	buf []byte // buf is the fixed size scratch buffer used by ReadFrom
}

// NewRotator returns a new Rotator, or an error when the provided
// Config specifies disallowed argument values, when the directory
// cannot be scanned, or when the current log file cannot be opened.
func NewRotator(cfg *Config) (*Rotator, error) {
	var err error

	if cfg == nil {
		cfg = new(Config)
	}
	c := *cfg

	if c.Directory == "" {
		c.Directory, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
	}

	if strings.ContainsAny(c.Prefix, "/"+string(filepath.Separator)) {
		return nil, fmt.Errorf("cannot use prefix containing path separator: %q", c.Prefix)
	}

	switch {
	case c.MaxBytes == 0:
		c.MaxBytes = defaultMaxBytes
	case c.MaxBytes < 0:
		return nil, fmt.Errorf("cannot use negative max bytes: %d", c.MaxBytes)
	}

	if c.Keep == 0 {
		c.Keep = defaultKeep
	}

	if c.FileMode == 0 {
		c.FileMode = defaultFileMode
	}

	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}

	retention, err := NewRetention(c.Directory, c.Prefix, &RetentionOptions{
		IgnoreScanErrors: c.IgnoreScanErrors,
		Logger:           c.Logger,
		Metrics:          c.Metrics,
	})
	if err != nil {
		return nil, err
	}

	r := &Rotator{
		cfg:         c,
		retention:   retention,
		log:         c.Logger,
		currentPath: filepath.Join(c.Directory, CurrentName),
		buf:         make([]byte, ReadBufferSize),
	}

	if err = r.openCurrent(os.O_WRONLY | os.O_CREATE | os.O_APPEND); err != nil {
		return nil, err
	}

	if c.RotateOnStart && r.fileSizeNow > 0 {
		r.log.Debug("rotating non-empty log file on start", "bytes", r.fileSizeNow)
		if err = r.rotate(); err != nil {
			_ = r.Close()
			return nil, err
		}
	}

	return r, nil
}

// Retention returns the Retention managing the rotated log files.
func (r *Rotator) Retention() *Retention { return r.retention }

// Size returns the number of bytes counted against the current log
// file since it was last freshly opened.
func (r *Rotator) Size() int64 { return r.fileSizeNow }

// keep returns the retention count to pass to CleanupOld.
func (r *Rotator) keep() int {
	if r.cfg.Keep < 0 {
		return 0
	}
	return r.cfg.Keep
}

// Close satisfies the io.Closer interface, and closes the current log
// file. It also exports metrics when so configured.
func (r *Rotator) Close() error {
	r.exportMetrics()
	if r.filePointer == nil {
		return nil
	}
	return r.closeCurrent()
}

// ReadFrom satisfies the io.ReaderFrom interface. It reads src in
// chunks of at most ReadBufferSize bytes and writes each chunk using
// the same rules as Write, until src returns io.EOF or a read returns
// no bytes and no error. Interrupted and would-block reads are
// retried. It returns the number of bytes read and any error other
// than io.EOF.
func (r *Rotator) ReadFrom(src io.Reader) (int64, error) {
	var total int64

	for {
		nr, err := src.Read(r.buf)
		if nr > 0 {
			if _, werr := r.Write(r.buf[:nr]); werr != nil {
				return total, werr
			}
			total += int64(nr)
		}

		switch {
		case err == nil:
			if nr == 0 {
				r.log.Trace("ReadFrom: empty read; end of input")
				return total, nil
			}
		case errors.Is(err, io.EOF):
			r.log.Trace("ReadFrom: end of input", "bytes", total)
			return total, nil
		case isTransient(err):
			r.log.Trace("ReadFrom: retrying transient read error", "error", err)
		default:
			return total, err
		}
	}
}

// Write satisfies the io.Writer interface. Once the current log file
// has reached its configured size, counting the bytes in p, the file
// is rotated immediately after the first newline in p: the bytes up to
// and including that newline end the rotated file, and the remainder
// of p starts the new current file. When p contains no newline, p is
// appended and rotation waits for a later Write that has one, so a log
// line is never split across files.
func (r *Rotator) Write(p []byte) (int, error) {
	if r.filePointer == nil {
		return 0, &os.PathError{Op: "write", Path: r.currentPath, Err: os.ErrClosed}
	}

	r.fileSizeNow += int64(len(p))
	r.log.Trace("Write", "bytes", len(p), "size", r.fileSizeNow)

	if r.fileSizeNow >= r.cfg.MaxBytes {
		if i := bytes.IndexByte(p, '\n'); i >= 0 {
			first, second := p[:i+1], p[i+1:]

			nw, err := r.writeBytes(first)
			if err != nil {
				return nw, err
			}
			// The remainder belongs to the next file, not the rotated one.
			r.fileSizeNow -= int64(len(second))
			if err = r.rotate(); err != nil {
				return nw, err
			}
			nw2, err := r.writeBytes(second)
			r.fileSizeNow = int64(len(second))
			r.cfg.Metrics.setCurrent(r.fileSizeNow)
			return nw + nw2, err
		}
		r.log.Trace("Write: over max bytes but no newline; deferring rotation", "size", r.fileSizeNow)
	}

	nw, err := r.writeBytes(p)
	r.cfg.Metrics.setCurrent(r.fileSizeNow)
	return nw, err
}
