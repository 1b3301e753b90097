package logging

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// successKey marks an info entry that should render as [OK].
const successKey = "ok"

// New builds the harness logger writing labelled lines to out.
func New(out io.Writer, level string, palette Palette) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&Formatter{Palette: palette})
	return log, nil
}

// Success logs msg at info level with the [OK] label.
func Success(log logrus.FieldLogger, msg string) {
	log.WithField(successKey, true).Info(msg)
}

// Formatter renders entries as "   [LEVEL] message key=value ...".
type Formatter struct {
	Palette Palette
}

func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	b := e.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	label, color := f.label(e)
	fmt.Fprintf(b, "   %s[%s]%s %s", color, label, f.Palette.Reset, e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k == successKey || k == logrus.ErrorKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s%s=%s%v", f.Palette.Dim, k, f.Palette.Reset, e.Data[k])
	}
	if err, ok := e.Data[logrus.ErrorKey]; ok {
		fmt.Fprintf(b, ": %v", err)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *Formatter) label(e *logrus.Entry) (string, string) {
	switch e.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return "ERROR", f.Palette.Red
	case logrus.WarnLevel:
		return "WARN", f.Palette.Yellow
	case logrus.DebugLevel, logrus.TraceLevel:
		return "DEBUG", f.Palette.Dim
	}
	if ok, _ := e.Data[successKey].(bool); ok {
		return "OK", f.Palette.Green
	}
	return "INFO", f.Palette.Cyan
}
