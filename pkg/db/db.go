package db

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// Models lists every table the service owns, in migration order.
var Models = []any{
	&models.Node{},
	&models.Reading{},
	&models.Alert{},
	&models.CropProfile{},
	&models.ThresholdCache{},
	&models.KnowledgeChunk{},
}

// Open connects, migrates and tunes a fresh database handle. Most callers
// want GetInstance; tests use Open to get an isolated database each.
func Open(dialector gorm.Dialector) (*DB, error) {
	logger := common.GetLogger()

	cfg := &gorm.Config{}
	if common.IsTestEnv() {
		cfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

	// sqlite allows a single writer; one connection keeps pragmas and
	// shared-cache memory databases consistent.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign key support: %w", err)
	}

	if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("set sqlite journal mode: %w", err)
	}

	if err := conn.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("Database migration completed")

	return &DB{Conn: conn}, nil
}

func GetInstance(dialector gorm.Dialector) *DB {
	once.Do(func() {
		var err error
		instance, err = Open(dialector)
		if err != nil {
			log.Fatal("Failed to open database:", err)
		}
	})
	return instance
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(common.EnvKeyIOTDbPath); !found {
		dbPath = "soil.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

// UseIsolatedMemorySqliteDialector names a private in-memory database so
// parallel tests never see each other's rows.
func UseIsolatedMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString()))
}

// UseDialector picks the backend named by IOT_DB_TYPE ("file" or "memory").
func UseDialector(dbType string) (gorm.Dialector, error) {
	switch dbType {
	case "", "file":
		return UseSqliteDialector(), nil
	case "memory":
		return UseMemorySqliteDialector(), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", dbType)
}
