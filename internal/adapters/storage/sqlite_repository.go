package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"colab/internal/domain"
	"colab/internal/logging"
	"colab/internal/ports"
)

// SQLiteRepository implements ports.SessionStore using GORM
type SQLiteRepository struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.SessionStore = (*SQLiteRepository)(nil)

const maxRetries = 5

// gormLogger bridges GORM logging onto the colab logger
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("COLAB_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteRepository creates a new SQLiteRepository at dbPath
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for concurrent listing reads during transitions
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")

	if err := db.AutoMigrate(&SessionModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sessions schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close implements SessionStore.Close
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append implements SessionWriter.Append
func (r *SQLiteRepository) Append(ctx context.Context, session domain.Session) error {
	return withRetry(func() error {
		model := domainToSessionModel(session)
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create session record: %w", err)
		}
		return nil
	})
}

// MarkFinished implements SessionWriter.MarkFinished. A record that is
// already finished is immutable.
func (r *SQLiteRepository) MarkFinished(ctx context.Context, id uuid.UUID, record ports.FinishRecord) error {
	return withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var model SessionModel
			if err := tx.Where("id = ?", id.String()).First(&model).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrSessionNotFound
				}
				return err
			}
			if model.State == string(domain.StateFinished) {
				return domain.ErrSessionFinished
			}

			now := time.Now().UTC()
			updates := map[string]any{
				"abnormal":       record.Abnormal,
				"finished_at":    &now,
				"patch":          record.Patch,
				"post_cmd_error": record.PostCmdError,
				"state":          string(domain.StateFinished),
			}
			return tx.Model(&SessionModel{}).Where("id = ?", id.String()).Updates(updates).Error
		})
	})
}

// Get implements SessionReader.Get
func (r *SQLiteRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var model SessionModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session, err := sessionModelToDomain(model)
	if err != nil {
		return nil, fmt.Errorf("corrupt session record %s: %w", model.ID, err)
	}
	return &session, nil
}

// ListRunning implements SessionReader.ListRunning. The session
// manager's single-writer gate keeps this at 0 or 1 rows.
func (r *SQLiteRepository) ListRunning(ctx context.Context) ([]domain.Session, error) {
	return r.list(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("state = ?", string(domain.StateRunning)).Order("created_at DESC")
	})
}

// ListRecent implements SessionReader.ListRecent, most recent first
func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]domain.Session, error) {
	return r.list(ctx, func(tx *gorm.DB) *gorm.DB {
		q := tx.Order("created_at DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
}

func (r *SQLiteRepository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]domain.Session, error) {
	var models []SessionModel

	err := withRetry(func() error {
		return scope(r.db.WithContext(ctx)).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(models))
	for _, model := range models {
		session, err := sessionModelToDomain(model)
		if err != nil {
			return nil, fmt.Errorf("corrupt session record %s: %w", model.ID, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// withRetry retries operations on SQLITE_BUSY with backoff
func withRetry(fn func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}
