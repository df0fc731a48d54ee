package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"taskapi/internal/config"
)

// New returns a logger configured for the given environment.
func New(env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	switch env {
	case config.EnvLocal:
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.DebugLevel)
	case config.EnvDev:
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.InfoLevel)
	case config.EnvProd:
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.WarnLevel)
	}

	return log
}
