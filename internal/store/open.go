package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Open returns the store selected by driver: "postgres" connects to dsn and
// applies migrations, "memory" keeps everything in process.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		pg, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		logrus.Info("Connected to PostgreSQL")
		return pg, nil
	case "memory":
		logrus.Warn("Using the in-memory store, data is lost on restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
