package resolve

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"bookpipe/internal/artifact"
)

// saveDownloads returns a listener that stores every download the page
// starts in dir under its suggested name. Downloads that begin after the
// resolver stopped waiting land there too, where newestFresh can find them.
// The file is written under a temporary name and renamed into place, so a
// concurrent save of the same download never exposes a partial file.
func saveDownloads(dir string, logger *zap.Logger) func(Download) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(d Download) {
		dest := filepath.Join(dir, downloadName(d.SuggestedFilename(), artifact.FormatUnknown))
		tmp := dest + ".part"
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Warn("download listener: create dir", zap.String("dir", dir), zap.Error(err))
			return
		}
		if err := d.SaveAs(tmp); err != nil {
			_ = os.Remove(tmp)
			logger.Warn("download listener: save failed", zap.String("path", dest), zap.Error(err))
			return
		}
		if err := os.Rename(tmp, dest); err != nil {
			_ = os.Remove(tmp)
			logger.Warn("download listener: rename failed", zap.String("path", dest), zap.Error(err))
			return
		}
		logger.Debug("download listener saved file", zap.String("path", dest))
	}
}

func scanFormats(f artifact.Format) []artifact.Format {
	if f == artifact.FormatUnknown {
		return preferredFormats
	}
	return []artifact.Format{f}
}

// newestFresh returns the most recently modified file in dir with one of
// the given formats' extensions, provided it was modified less than window
// before now. This is a heuristic: an unrelated file saved in the same
// window is indistinguishable from the one the browser wrote.
func newestFresh(dir string, formats []artifact.Format, now time.Time, window time.Duration) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	wanted := map[artifact.Format]bool{}
	for _, f := range formats {
		wanted[f] = true
	}

	var best string
	var bestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !wanted[artifact.FormatFromName(e.Name())] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = filepath.Join(dir, e.Name())
			bestMod = info.ModTime()
		}
	}
	if best == "" || now.Sub(bestMod) >= window {
		return "", false
	}
	return best, true
}
