package gormdb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	kvPairRegex    = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)
	passwordRegexp = regexp.MustCompile(`(password=)([^\s]+)`)
)

// Options configures the SQL store connection.
type Options struct {
	Driver         string
	DSN            string
	Debug          bool
	ConnectRetries int
	RetryDelay     time.Duration
}

// Open connects to the configured database, migrates the schema and returns a
// ready Store.
func Open(ctx context.Context, opts Options, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	if opts.ConnectRetries <= 0 {
		opts.ConnectRetries = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	var dialector gorm.Dialector
	dsn := opts.DSN
	switch opts.Driver {
	case DriverPostgres:
		dsn = NormalizeDSN(dsn)
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", opts.Driver)
	}

	logLevel := logger.Silent
	if opts.Debug {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	for i := 0; i < opts.ConnectRetries; i++ {
		db, err = gorm.Open(dialector, cfg)
		if err == nil {
			break
		}
		log.Warn("retrying database connection", zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if opts.Driver == DriverSQLite {
		// A single connection serialises sqlite writers instead of failing
		// them with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database connected", zap.String("driver", opts.Driver), zap.String("dsn", MaskDSN(dsn)))

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return New(db, log), nil
}

// Migrate creates or updates every table of the stock ledger.
func Migrate(db *gorm.DB) error {
	tables := []interface{}{
		&models.Coop{},
		&models.Batch{},
		&models.Harvest{},
		&models.Mortality{},
		&models.Relocation{},
		&models.MarketPrice{},
		&models.SupplyItem{},
		&models.SupplyUsage{},
		&models.OperationalCost{},
	}
	for _, m := range tables {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// NormalizeDSN accepts either a URL style DSN (postgres://...) or a key=value
// list, trims quotes and whitespace and defaults sslmode to disable.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// MaskDSN hides the password of a key=value DSN for logging.
func MaskDSN(dsn string) string {
	return passwordRegexp.ReplaceAllString(dsn, `${1}***`)
}
