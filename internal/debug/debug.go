package debug

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const defaultLogFileName = "amity-debug.log"

var (
	once   sync.Once
	logger *slog.Logger
	sink   = &lazyFile{path: filepath.Join(os.TempDir(), defaultLogFileName)}
)

// SetPath overrides the debug log destination.
// Takes effect as long as nothing was logged yet.
func SetPath(path string) {
	if path == "" {
		return
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.w == nil {
		sink.path = path
	}
}

// GetLogger returns a singleton slog logger instance.
func GetLogger() *slog.Logger {
	once.Do(func() {
		logger = slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	})
	return logger
}

// lazyFile opens its file on first write, so package level loggers can be
// declared before main decides where the log lives.
type lazyFile struct {
	mu   sync.Mutex
	path string
	w    io.Writer
}

func (f *lazyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w == nil {
		file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			f.w = io.Discard
		} else {
			f.w = file
		}
	}
	return f.w.Write(p)
}
