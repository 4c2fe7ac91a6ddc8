package rollout

import (
	"os"
	"path/filepath"
)

// closeCurrent closes file pointer to the current log file.
func (r *Rotator) closeCurrent() error {
	r.log.Trace("closeCurrent")
	err := fileClose(r.currentPath, r.filePointer)
	r.filePointer = nil
	return err
}

// openCurrent opens file pointer to the current log file for writing
// using flags, creating the log file if it does not exist.
func (r *Rotator) openCurrent(flags int) error {
	r.log.Trace("openCurrent", "flags", flags)
	var err error
	r.filePointer, err = fileOpen(r.currentPath, flags, r.cfg.FileMode)
	if err != nil {
		return err
	}

	// Because the log file might already have some contents, check
	// its size and store it so it counts towards the configured max
	// log file size.
	st, err := r.filePointer.Stat()
	if err != nil {
		// When cannot stat the open file pointer, close the file as
		// if it could not be opened.
		_ = r.filePointer.Close()
		r.filePointer = nil
		return err
	}

	r.fileSizeNow = st.Size()
	r.cfg.Metrics.setCurrent(r.fileSizeNow)

	return nil
}

// rotate closes the current log file, renames it to the next numbered
// log file, removes numbered log files beyond the retention count, then
// creates a new, empty current log file.
func (r *Rotator) rotate() error {
	r.log.Trace("rotate", "size", r.fileSizeNow)
	var err error

	if r.cfg.SyncOnRotate {
		if err = fileSync(r.currentPath, r.filePointer); err != nil {
			_ = r.closeCurrent()
			return err
		}
	}

	if err = r.closeCurrent(); err != nil {
		return err
	}

	name := r.retention.NextLogfile()
	if err = fileRename(r.currentPath, filepath.Join(r.cfg.Directory, name)); err != nil {
		return err
	}
	r.log.Debug("rotated log file", "name", name, "bytes", r.fileSizeNow)

	r.retention.CleanupOld(r.keep())

	if err = r.openCurrent(os.O_WRONLY | os.O_CREATE | os.O_TRUNC); err != nil {
		return err
	}

	r.cfg.Metrics.rotated()
	r.exportMetrics()

	return nil
}

// exportMetrics writes the metrics textfile, if any. Failing to do so
// is not fatal to log ingestion.
func (r *Rotator) exportMetrics() {
	if err := r.cfg.Metrics.WriteTextfile(); err != nil {
		r.log.Warn("cannot write metrics textfile", "error", err)
	}
}

// writeBytes will write all of p to the current log file, retrying
// after interrupted and short writes.
func (r *Rotator) writeBytes(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	nw, err := writeFull(r.filePointer, p)
	r.cfg.Metrics.wrote(nw)
	if err != nil {
		r.log.Trace("writeBytes failed", "written", nw, "want", len(p), "error", err)
	}
	return nw, err
}
