package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/forge/logger"
)

// System is the set of filesystem operations an apply handler may perform.
// Reads always go to the underlying filesystem; writes are suppressed in dry
// mode.
type System interface {
	MkdirAll(path Path) error
	WriteFile(path Path, data []byte) error
	Copy(src, dst Path) error
	Remove(path Path) error
	Touch(path Path) error
	Stat(path Path) (os.FileInfo, error)
	Real() bool
}

// OS returns the host filesystem.
func OS() afero.Fs {
	return afero.NewOsFs()
}

// NewSystem returns a System over fs. When real is false every mutating
// operation is logged and skipped.
func NewSystem(fs afero.Fs, real bool, log *logger.Logger) System {
	if log == nil {
		log = logger.Get("files")
	}
	if real {
		return &realSystem{fs: fs, log: log}
	}
	return &drySystem{fs: fs, log: log}
}

type realSystem struct {
	fs  afero.Fs
	log *logger.Logger
}

func (s *realSystem) Real() bool { return true }

func (s *realSystem) MkdirAll(path Path) error {
	s.log.Debug("mkdir -p", logger.Fields(logger.FieldPath, path))
	return s.fs.MkdirAll(string(path), 0o755)
}

func (s *realSystem) WriteFile(path Path, data []byte) error {
	s.log.Debug("write", logger.Fields(logger.FieldPath, path, "bytes", len(data)))
	if err := s.fs.MkdirAll(filepath.Dir(string(path)), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, string(path), data, 0o644)
}

func (s *realSystem) Copy(src, dst Path) error {
	s.log.Debug("cp", logger.Fields("src", src, "dst", dst))
	in, err := s.fs.Open(string(src))
	if err != nil {
		return err
	}
	defer in.Close()

	if err := s.fs.MkdirAll(filepath.Dir(string(dst)), 0o755); err != nil {
		return err
	}
	out, err := s.fs.Create(string(dst))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func (s *realSystem) Remove(path Path) error {
	s.log.Debug("rm -rf", logger.Fields(logger.FieldPath, path))
	return s.fs.RemoveAll(string(path))
}

func (s *realSystem) Touch(path Path) error {
	s.log.Debug("touch", logger.Fields(logger.FieldPath, path))
	now := time.Now()
	if _, err := s.fs.Stat(string(path)); os.IsNotExist(err) {
		f, err := s.fs.Create(string(path))
		if err != nil {
			return err
		}
		return f.Close()
	}
	return s.fs.Chtimes(string(path), now, now)
}

func (s *realSystem) Stat(path Path) (os.FileInfo, error) {
	return s.fs.Stat(string(path))
}

type drySystem struct {
	fs  afero.Fs
	log *logger.Logger
}

func (s *drySystem) Real() bool { return false }

func (s *drySystem) MkdirAll(path Path) error {
	s.log.Debug("(dry) mkdir -p", logger.Fields(logger.FieldPath, path))
	return nil
}

func (s *drySystem) WriteFile(path Path, data []byte) error {
	s.log.Debug("(dry) write", logger.Fields(logger.FieldPath, path, "bytes", len(data)))
	return nil
}

func (s *drySystem) Copy(src, dst Path) error {
	s.log.Debug("(dry) cp", logger.Fields("src", src, "dst", dst))
	return nil
}

func (s *drySystem) Remove(path Path) error {
	s.log.Debug("(dry) rm -rf", logger.Fields(logger.FieldPath, path))
	return nil
}

func (s *drySystem) Touch(path Path) error {
	s.log.Debug("(dry) touch", logger.Fields(logger.FieldPath, path))
	return nil
}

func (s *drySystem) Stat(path Path) (os.FileInfo, error) {
	return s.fs.Stat(string(path))
}
