package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// pickRow is the database row of one pick.
type pickRow struct {
	ID         string  `gorm:"primaryKey;size:64"`
	DraftID    string  `gorm:"index:idx_draft_overall,priority:1;not null;size:64"`
	Overall    int     `gorm:"index:idx_draft_overall,priority:2;not null"`
	Round      int     `gorm:"not null"`
	PlayerID   string  `gorm:"not null;size:64"`
	PlayerName string  `gorm:"size:128"`
	Position   string  `gorm:"size:8"`
	Team       string  `gorm:"size:8"`
	Slot       *string `gorm:"size:16"`
	Timestamp  float64
	CreatedAt  time.Time
}

func (pickRow) TableName() string { return "draft_picks" }

func rowFromPick(draftID string, p model.DraftPick) pickRow {
	return pickRow{
		ID:         p.ID,
		DraftID:    draftID,
		Overall:    p.Overall,
		Round:      p.Round,
		PlayerID:   p.PlayerID,
		PlayerName: p.PlayerName,
		Position:   p.Position,
		Team:       p.Team,
		Slot:       p.Slot,
		Timestamp:  p.Timestamp,
	}
}

func (r pickRow) pick() model.DraftPick {
	return model.DraftPick{
		ID:         r.ID,
		PlayerID:   r.PlayerID,
		PlayerName: r.PlayerName,
		Position:   r.Position,
		Team:       r.Team,
		Round:      r.Round,
		Overall:    r.Overall,
		Slot:       r.Slot,
		Timestamp:  r.Timestamp,
	}
}

// SQLConfig configures the database connection of a SQLPickStore.
type SQLConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver          string
	DSN             string
	Debug           bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// SQLPickStore persists pick lists with gorm.
type SQLPickStore struct {
	db *gorm.DB
}

// OpenSQLPickStore connects, checks the connection and migrates the picks table.
func OpenSQLPickStore(ctx context.Context, cfg SQLConfig) (*SQLPickStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported pick store driver %q", cfg.Driver)
	}

	logLevel := gormlogger.Error
	if cfg.Debug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return NewSQLPickStore(ctx, db)
}

// NewSQLPickStore wraps an open gorm handle and migrates the picks table.
func NewSQLPickStore(ctx context.Context, db *gorm.DB) (*SQLPickStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&pickRow{}); err != nil {
		return nil, fmt.Errorf("migrate picks: %w", err)
	}
	return &SQLPickStore{db: db}, nil
}

// GetPicks returns the draft's picks by overall pick number.
func (s *SQLPickStore) GetPicks(ctx context.Context, draftID string) ([]model.DraftPick, error) {
	var rows []pickRow
	if err := s.db.WithContext(ctx).Where("draft_id = ?", draftID).Order("overall ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load picks for draft %s: %w", draftID, err)
	}
	out := make([]model.DraftPick, len(rows))
	for i, r := range rows {
		out[i] = r.pick()
	}
	return out, nil
}

// SavePicks replaces the draft's picks in one transaction.
func (s *SQLPickStore) SavePicks(ctx context.Context, draftID string, picks []model.DraftPick) error {
	rows := make([]pickRow, len(picks))
	for i, p := range picks {
		rows[i] = rowFromPick(draftID, p)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("draft_id = ?", draftID).Delete(&pickRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("save picks for draft %s: %w", draftID, err)
	}
	return nil
}

// ClearPicks deletes the draft's picks.
func (s *SQLPickStore) ClearPicks(ctx context.Context, draftID string) error {
	if err := s.db.WithContext(ctx).Where("draft_id = ?", draftID).Delete(&pickRow{}).Error; err != nil {
		return fmt.Errorf("clear picks for draft %s: %w", draftID, err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLPickStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
