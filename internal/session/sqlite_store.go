package session

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/inkwell-dev/inkwell/internal/config"
)

// PersistedToken is the single-row table backing SQLiteStore
type PersistedToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (p *PersistedToken) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = ulid.Make().String()
	}
	return nil
}

// SQLiteStore keeps the token in a local SQLite file, for machines without a keychain
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, fmt.Errorf("failed to apply pragma: %w", err)
	}

	if err := db.AutoMigrate(&PersistedToken{}); err != nil {
		return nil, fmt.Errorf("failed to migrate token database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load() (string, error) {
	var row PersistedToken
	err := s.db.Where("name = ?", TokenKey).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if row.Value == "" {
		return "", ErrNotFound
	}
	return row.Value, nil
}

func (s *SQLiteStore) Save(token string) error {
	row := PersistedToken{Name: TokenKey, Value: token}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete() error {
	if err := s.db.Where("name = ?", TokenKey).Delete(&PersistedToken{}).Error; err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenTokenStore builds the backend selected in configuration
func OpenTokenStore(cfg config.TokenConfig) (TokenStore, error) {
	switch cfg.Backend {
	case config.TokenBackendKeyring, "":
		return NewKeyringStore(), nil
	case config.TokenBackendSQLite:
		store, err := OpenSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.TokenBackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token backend: %s", cfg.Backend)
	}
}
