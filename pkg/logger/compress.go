package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
)

// compressHandler 切割后压缩上一个日志文件。
// rotatelogs 只清理未压缩的文件，.gz 按 maxAge / keep 自行清理
func compressHandler(dir string, maxAge time.Duration, keep int) rotatelogs.Handler {
	return rotatelogs.HandlerFunc(func(e rotatelogs.Event) {
		fe, ok := e.(*rotatelogs.FileRotatedEvent)
		if !ok || fe.PreviousFile() == "" {
			return
		}
		if err := compressRotated(fe.PreviousFile()); err != nil {
			GetGlobalLogger().Warn("compress rotated log failed",
				zap.String("file", fe.PreviousFile()), zap.Error(err))
			return
		}
		if err := pruneCompressed(dir, maxAge, keep, time.Now()); err != nil {
			GetGlobalLogger().Warn("prune compressed logs failed", zap.Error(err))
		}
	})
}

// compressRotated writes path+".gz" and removes path once the archive is complete.
func compressRotated(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		_ = zw.Close()
		_ = out.Close()
		_ = os.Remove(path + ".gz")
		return fmt.Errorf("gzip %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// pruneCompressed removes archived logs in dir older than maxAge. With maxAge <= 0 it
// keeps the newest keep archives instead; keep <= 0 keeps everything.
func pruneCompressed(dir string, maxAge time.Duration, keep int, now time.Time) error {
	matches, err := filepath.Glob(filepath.Join(dir, "health-monitor-*.log*.gz"))
	if err != nil {
		return err
	}
	type archive struct {
		path string
		mod  time.Time
	}
	var archives []archive
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			continue
		}
		archives = append(archives, archive{m, fi.ModTime()})
	}
	sort.Slice(archives, func(i, j int) bool { return archives[i].mod.After(archives[j].mod) })

	var errs []error
	for i, a := range archives {
		expired := maxAge > 0 && now.Sub(a.mod) > maxAge
		overflow := maxAge <= 0 && keep > 0 && i >= keep
		if expired || overflow {
			if err := os.Remove(a.path); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
