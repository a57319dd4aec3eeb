package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Housekeeper periodically logs cache-directory sizes for every
// registered project root. It never deletes or mutates anything under
// Output/ or OutputTemp/: historical patches are retained forever, and
// a scheduled job is the easiest place to accidentally violate that, so
// this type's only capability is read-and-log.
type Housekeeper struct {
	mu     sync.Mutex
	cron   *cron.Cron
	logger *zap.Logger
	roots  map[string]*Root
}

// NewHousekeeper builds a Housekeeper; call Start to begin ticking.
func NewHousekeeper(logger *zap.Logger) *Housekeeper {
	return &Housekeeper{
		cron:   cron.New(),
		logger: logger,
		roots:  make(map[string]*Root),
	}
}

// Watch registers a project cache root to report on.
func (h *Housekeeper) Watch(projectPath string, root *Root) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roots[projectPath] = root
}

// Unwatch removes a project cache root, e.g. on clear-without-reinit.
func (h *Housekeeper) Unwatch(projectPath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.roots, projectPath)
}

// Start schedules the read-only reporting tick at the given cron spec
// (e.g. "@every 1m") and starts the scheduler in the background.
func (h *Housekeeper) Start(spec string) error {
	_, err := h.cron.AddFunc(spec, h.reportOnce)
	if err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight tick to finish.
func (h *Housekeeper) Stop() {
	ctx := h.cron.Stop()
	<-ctx.Done()
}

func (h *Housekeeper) reportOnce() {
	h.mu.Lock()
	roots := make(map[string]*Root, len(h.roots))
	for k, v := range h.roots {
		roots[k] = v
	}
	h.mu.Unlock()

	for projectPath, root := range roots {
		outputBytes, outputFiles := dirStats(root.Output())
		tempBytes, tempFiles := dirStats(root.OutputTemp())
		h.logger.Info("cache housekeeping",
			zap.String("projectPath", projectPath),
			zap.Int("outputFiles", outputFiles),
			zap.Int64("outputBytes", outputBytes),
			zap.Int("outputTempFiles", tempFiles),
			zap.Int64("outputTempBytes", tempBytes),
		)
	}
}

func dirStats(dir string) (totalBytes int64, fileCount int) {
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		totalBytes += info.Size()
		fileCount++
		return nil
	})
	return
}
