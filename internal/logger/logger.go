package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log глобальный логгер. До Init указывает на стандартный logrus.
var Log = logrus.StandardLogger()

// Options параметры логгера. Пустой Format означает json.
type Options struct {
	Level   string
	Format  string
	Service string
	Output  io.Writer
}

// Init пересоздаёт глобальный логгер. Неизвестный уровень трактуется как info.
func Init(opts Options) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(opts.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stdout)
	}

	if opts.Service != "" {
		l.AddHook(serviceHook(opts.Service))
	}

	Log = l
}

// WithComponent запись с полем component.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// serviceHook проставляет имя сервиса во все записи.
type serviceHook string

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = string(h)
	}
	return nil
}
