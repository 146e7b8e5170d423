package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Попытка миграций")
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Миграции уже применены")
			return nil
		}
		logger.Error("Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logAppliedVersion(m)
	return nil
}

type versioner interface {
	Version() (version uint, dirty bool, err error)
}

// миграции уже применены, поэтому ошибка чтения версии не повод падать
func logAppliedVersion(m versioner) {
	version, dirty, err := m.Version()
	if err != nil {
		logger.Warn("Миграции применены, версию прочитать не удалось", zap.Error(err))
		return
	}
	logger.Info("Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Откат миграций")
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Миграции откачены")
	return nil
}

func (s *Storage) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("чтение миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(s.connString))
	if err != nil {
		logger.Error("Не удалось создать мигратор", err)
		return nil, fmt.Errorf("создание мигратора: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("Ошибка закрытия источника миграций", zap.Error(srcErr))
	}
	if dbErr != nil {
		logger.Warn("Ошибка закрытия соединения миграций", zap.Error(dbErr))
	}
}

// драйвер pgx/v5 у golang-migrate зарегистрирован под схемой pgx5
func migrateURL(connString string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}
