package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Option настраивает логгер
type Option func(*logrus.Logger)

// WithOutput перенаправляет вывод логов
func WithOutput(w io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// WithText включает текстовый формат вместо JSON (для интерактивных утилит)
func WithText() Option {
	return func(l *logrus.Logger) {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func New(logLevel string, opts ...Option) *logrus.Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{})

	log.SetOutput(os.Stdout)

	// Уровень логирования
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Уровень по умолчанию, если передан некорректный
	}
	log.SetLevel(level)

	for _, opt := range opts {
		opt(log)
	}
	return log
}

// Discard возвращает логгер без вывода, удобен в тестах
func Discard() *logrus.Logger {
	return New("panic", WithOutput(io.Discard))
}
