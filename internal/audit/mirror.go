package audit

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"vink/internal/logging"
)

const mirrorFileName = "audit-mirror.log"

// mirror copies one entry line to the removable sink, best-effort. The
// fallback order is create-if-absent, append, and finally a bounded tail
// rewrite so memory use stays flat no matter how large the historical
// mirror file has grown. The sink may be shared with other writers, so the
// file is flocked for the duration of the write.
func (l *Logger) mirror(line []byte) {
	if l.opts.MirrorDir == "" {
		return
	}
	// Removable media: probe before touching so an unplugged sink costs one
	// syscall instead of a pile of errors.
	if err := unix.Access(l.opts.MirrorDir, unix.W_OK); err != nil {
		return
	}

	path := filepath.Join(l.opts.MirrorDir, mirrorFileName)
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil || !locked {
		return
	}
	defer func() { _ = lock.Unlock() }()

	if err := appendFile(path, line); err == nil {
		return
	}
	if err := l.rewriteWithTail(path, line); err != nil {
		l.logger.Warn("audit mirror write failed", logging.Error(err))
	}
}

func appendFile(path string, line []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(line)
	return err
}

// rewriteWithTail replaces the mirror file with its bounded tail plus the
// new entry. Only the final window of the file is ever read into memory.
func (l *Logger) rewriteWithTail(path string, line []byte) error {
	tail, err := readTail(path, l.opts.MirrorTailLines)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(tail); err != nil {
		_ = file.Close()
		return err
	}
	if _, err := file.Write(line); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readTail returns up to maxLines complete trailing lines of the file,
// reading at most a bounded byte window from the end.
func readTail(path string, maxLines int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	// Generous per-line estimate; the window, not the file, bounds memory.
	window := int64(maxLines) * 512
	offset := info.Size() - window
	if offset < 0 {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(file, window))
	if err != nil {
		return nil, err
	}

	if offset > 0 {
		// Discard the partial first line of the window.
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			data = data[idx+1:]
		} else {
			data = nil
		}
	}

	lines := bytes.Count(data, []byte{'\n'})
	for lines > maxLines {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		data = data[idx+1:]
		lines--
	}
	return data, nil
}
