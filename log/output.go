/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ssgreg/logf"
	"github.com/ssgreg/logftext"
	"gopkg.in/natefinch/lumberjack.v2"
)

const megabyte = 1024 * 1024

func newAppender(cfg *Config) logf.Appender {
	return newAppenderWithWriter(cfg, newOutputWriter(cfg))
}

func newOutputWriter(cfg *Config) io.Writer {
	switch cfg.Output {
	case OutputStderr:
		return os.Stderr
	case OutputFile:
		rot := cfg.File.Rotation
		return &lumberjack.Logger{
			Filename:   expandFilePath(cfg.File.Path, time.Now()),
			MaxSize:    int(rot.MaxSize / megabyte),
			MaxBackups: rot.MaxBackups,
			MaxAge:     rot.MaxAgeDays,
			Compress:   rot.Compress,
		}
	default:
		return os.Stdout
	}
}

func newAppenderWithWriter(cfg *Config, w io.Writer) logf.Appender {
	if cfg.Format != FormatText {
		return logf.NewWriteAppender(w, logf.NewJSONEncoder(logf.JSONEncoderConfig{
			FieldKeyTime: "time",
			EncodeTime:   logf.RFC3339NanoTimeEncoder,
		}))
	}
	noColor := cfg.NoColor
	return logftext.NewAppender(w, logftext.EncoderConfig{NoColor: &noColor, EncodeTime: logf.RFC3339NanoTimeEncoder})
}

// expandFilePath replaces {{starttime}} (minute precision) and {{pid}} in the log file path.
func expandFilePath(path string, startTime time.Time) string {
	if !strings.Contains(path, "{{") {
		return path
	}
	return strings.NewReplacer(
		"{{starttime}}", startTime.Format("200601021504"),
		"{{pid}}", strconv.Itoa(os.Getpid()),
	).Replace(path)
}
