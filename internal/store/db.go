package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNoDSN = errors.New("store: empty database url")

// DB is the postgres-backed Store.
type DB struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(dsn string, log *zap.Logger) (*DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.AutoMigrate(&Jugada{}, &Adivinanza{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &DB{db: db, log: log.Named("store")}, nil
}

func (s *DB) SaveJugadas(ctx context.Context, jugadas []Jugada) error {
	if len(jugadas) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&jugadas).Error; err != nil {
		return fmt.Errorf("store: save jugadas: %w", err)
	}
	return nil
}

func (s *DB) SaveAdivinanza(ctx context.Context, a *Adivinanza) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("store: save adivinanza: %w", err)
	}
	return nil
}

// RecordSummary archives the move log of a finished session under a new partida id.
func (s *DB) RecordSummary(ctx context.Context, summary engine.Summary) error {
	partida := uuid.NewString()
	rows := jugadasFromSummary(partida, summary)
	if err := s.SaveJugadas(ctx, rows); err != nil {
		return err
	}
	s.log.Info("session archived", zap.String("partida", partida), zap.Int("moves", len(rows)))
	return nil
}

func (s *DB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
