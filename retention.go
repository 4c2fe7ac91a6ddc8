package rollout

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const logfileSuffix = ".log"

// RetentionOptions customizes a Retention beyond its directory and
// prefix. The zero value is usable.
type RetentionOptions struct {
	// IgnoreScanErrors selects the policy applied when the directory
	// cannot be listed. When false, NewRetention returns the error.
	// When true, the history starts empty and numbering restarts at
	// 1, which may overwrite files the scan could not see.
	IgnoreScanErrors bool

	// Logger receives diagnostics. When nil, nothing is logged.
	Logger hclog.Logger

	// Metrics is optionally updated on every deletion attempt.
	Metrics *Metrics
}

// Retention tracks the numbered history files of a single prefix in a
// directory, hands out the next file name on each rotation, and
// deletes the oldest files once more than a given number are
// retained.
//
// The tracked indices are always sorted ascending with no duplicates:
// they are seeded sorted from a directory scan, and every index handed
// out afterwards is one more than the largest already known.
type Retention struct {
	dir     string
	prefix  string
	indices []uint64
	log     hclog.Logger
	metrics *Metrics
}

// NewRetention scans dir for files named {prefix}{n}.log and returns a
// Retention seeded with their indices.
func NewRetention(dir, prefix string, opts *RetentionOptions) (*Retention, error) {
	if opts == nil {
		opts = new(RetentionOptions)
	}

	rt := &Retention{
		dir:     dir,
		prefix:  prefix,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
	if rt.log == nil {
		rt.log = hclog.NewNullLogger()
	}

	names, err := readDirNames(dir)
	if err != nil {
		if !opts.IgnoreScanErrors {
			return nil, fmt.Errorf("cannot scan log directory: %w", err)
		}
		rt.log.Warn("cannot scan log directory; starting with empty history", "dir", dir, "error", err)
		names = nil
	}

	for _, name := range names {
		if index, ok := parseIndex(name, prefix); ok {
			rt.indices = append(rt.indices, index)
		}
	}
	sort.Slice(rt.indices, func(i, j int) bool { return rt.indices[i] < rt.indices[j] })

	rt.log.Debug("scanned log directory", "dir", dir, "prefix", prefix, "files", len(rt.indices))
	rt.metrics.setRetained(len(rt.indices))

	return rt, nil
}

// parseIndex returns the numeric index encoded in name when name is
// exactly prefix, followed by one or more ASCII digits without leading
// zeros, followed by ".log".
func parseIndex(name, prefix string) (uint64, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, logfileSuffix) {
		return 0, false
	}
	if len(name) < len(prefix)+len(logfileSuffix) {
		// The prefix and suffix overlap, as with prefix "a.l" and
		// name "a.log".
		return 0, false
	}
	middle := name[len(prefix) : len(name)-len(logfileSuffix)]
	if middle == "" || (len(middle) > 1 && middle[0] == '0') {
		// Only the unpadded spelling Filename produces is tracked, so
		// that each index names exactly one file.
		return 0, false
	}
	for i := 0; i < len(middle); i++ {
		if middle[i] < '0' || middle[i] > '9' {
			return 0, false
		}
	}
	index, err := strconv.ParseUint(middle, 10, 64)
	if err != nil {
		return 0, false // overflow
	}
	return index, true
}

// Filename returns the base name of the history file for index.
func (rt *Retention) Filename(index uint64) string {
	return rt.prefix + strconv.FormatUint(index, 10) + logfileSuffix
}

// Indices returns a copy of the tracked indices, oldest first.
func (rt *Retention) Indices() []uint64 {
	indices := make([]uint64, len(rt.indices))
	copy(indices, rt.indices)
	return indices
}

// NextIndex appends and returns one more than the largest tracked
// index, or 1 when nothing is tracked. Indices freed by deletion are
// never handed out again.
func (rt *Retention) NextIndex() uint64 {
	var index uint64 = 1
	if l := len(rt.indices); l > 0 {
		index = rt.indices[l-1] + 1
	}
	rt.indices = append(rt.indices, index)
	rt.metrics.setRetained(len(rt.indices))
	return index
}

// NextLogfile returns the base name of the next history file.
func (rt *Retention) NextLogfile() string {
	return rt.Filename(rt.NextIndex())
}

// CleanupOld deletes the oldest history files until no more than keep
// remain tracked. Failure to delete a file is logged and otherwise
// ignored; the index is no longer tracked either way.
func (rt *Retention) CleanupOld(keep int) {
	for len(rt.indices) > keep {
		index := rt.indices[0]
		rt.indices = rt.indices[1:]

		pathname := filepath.Join(rt.dir, rt.Filename(index))
		if err := fileRemove(pathname); err != nil {
			rt.log.Debug("cannot remove old log file", "path", pathname, "error", err)
			rt.metrics.removeFailed()
			continue
		}
		rt.log.Debug("removed old log file", "path", pathname)
		rt.metrics.removed()
	}
	rt.metrics.setRetained(len(rt.indices))
}
