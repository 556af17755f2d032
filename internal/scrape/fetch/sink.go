package fetch

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"hiringscan-engine/internal/scrape/util"
)

// Sink receives the raw body of every successful fetch.
type Sink interface {
	Save(url string, body []byte)
}

// DirSink writes bodies under a directory for debugging. Failures are logged
// and otherwise ignored.
type DirSink struct {
	dir string
	log *zap.Logger
	mu  sync.Mutex
}

func NewDirSink(dir string, log *zap.Logger) *DirSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirSink{dir: dir, log: log}
}

func (s *DirSink) Save(url string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn("debug sink mkdir failed", zap.String("dir", s.dir), zap.Error(err))
		return
	}
	path := filepath.Join(s.dir, util.SafeFilename(url)+".html")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		s.log.Warn("debug sink write failed", zap.String("path", path), zap.Error(err))
	}
}
