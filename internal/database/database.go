package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/deferral-gin/internal/config"
	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// ResolvePoolConfig 合并配置与默认值,未配置的字段取默认值
func ResolvePoolConfig(cfg config.DatabaseConfig) PoolConfig {
	pool := PoolConfig{
		MaxIdleConns:    cfg.MaxIdleConns,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
	if pool.MaxIdleConns <= 0 {
		pool.MaxIdleConns = 10
	}
	if pool.MaxOpenConns <= 0 {
		pool.MaxOpenConns = 100
	}
	if pool.ConnMaxLifetime <= 0 {
		pool.ConnMaxLifetime = 3600
	}
	if pool.ConnMaxIdleTime <= 0 {
		pool.ConnMaxIdleTime = 600
	}
	return pool
}

// Open 根据驱动打开数据库,sqlite 时 DBName 为文件路径
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(cfg.DBName)
	case "", "postgres":
		dialector = postgres.Open(BuildDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return gorm.Open(dialector, &gorm.Config{})
}

// Connect 连接数据库并配置连接池
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	pool := ResolvePoolConfig(cfg)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接,间隔指数增长
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}
	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Models 需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{
		&model.ChecklistModel{},
		&model.DocumentModel{},
		&model.CommentModel{},
		&model.DraftModel{},
		&model.ReviewDecisionModel{},
		&model.StateHistoryModel{},
		&model.ExtensionModel{},
		&model.ApproverModel{},
		&model.EventModel{},
		&model.AuditLogModel{},
		&model.ReportExportModel{},
	}
}

func isSQLite(db *gorm.DB) bool {
	name := db.Dialector.Name()
	return name == "sqlite" || name == "sqlite3"
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	if isSQLite(db) {
		// SQLite 不支持 jsonb,手动建表
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

var sqliteTables = []struct {
	name string
	ddl  string
}{
	{"checklists", `CREATE TABLE IF NOT EXISTS checklists (
		id VARCHAR(64) PRIMARY KEY,
		dcl_no VARCHAR(64) NOT NULL UNIQUE,
		customer_name VARCHAR(255) NOT NULL,
		customer_number VARCHAR(64),
		loan_type VARCHAR(128),
		status VARCHAR(32) NOT NULL,
		rm_id VARCHAR(64),
		created_by VARCHAR(64) NOT NULL,
		sla_expiry DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME
	)`},
	{"checklist_documents", `CREATE TABLE IF NOT EXISTS checklist_documents (
		id VARCHAR(64) PRIMARY KEY,
		checklist_id VARCHAR(64) NOT NULL,
		position INTEGER DEFAULT 0,
		category VARCHAR(128) NOT NULL,
		name VARCHAR(255) NOT NULL,
		status VARCHAR(32),
		action VARCHAR(32),
		co_status VARCHAR(32),
		rm_status VARCHAR(64),
		checker_status VARCHAR(32) DEFAULT 'pending',
		checker_comment TEXT,
		comment TEXT,
		file_url VARCHAR(512),
		expiry_date DATETIME,
		deferral_no VARCHAR(64),
		approved BOOLEAN DEFAULT 0,
		updated_at DATETIME
	)`},
	{"checklist_comments", `CREATE TABLE IF NOT EXISTS checklist_comments (
		id VARCHAR(64) PRIMARY KEY,
		checklist_id VARCHAR(64) NOT NULL,
		role VARCHAR(32) NOT NULL,
		author VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`},
	{"checklist_drafts", `CREATE TABLE IF NOT EXISTS checklist_drafts (
		checklist_id VARCHAR(64) PRIMARY KEY,
		data TEXT NOT NULL,
		saved_by VARCHAR(64) NOT NULL,
		updated_at DATETIME NOT NULL
	)`},
	{"review_decisions", `CREATE TABLE IF NOT EXISTS review_decisions (
		id VARCHAR(64) PRIMARY KEY,
		checklist_id VARCHAR(64) NOT NULL,
		document_id VARCHAR(64) NOT NULL,
		reviewer VARCHAR(64) NOT NULL,
		decision VARCHAR(32) NOT NULL,
		comment TEXT,
		created_at DATETIME NOT NULL
	)`},
	{"checklist_state_history", `CREATE TABLE IF NOT EXISTS checklist_state_history (
		id VARCHAR(64) PRIMARY KEY,
		checklist_id VARCHAR(64) NOT NULL,
		from_state VARCHAR(32),
		to_state VARCHAR(32) NOT NULL,
		event VARCHAR(32) NOT NULL,
		reason TEXT,
		operator VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL
	)`},
	{"extensions", `CREATE TABLE IF NOT EXISTS extensions (
		id VARCHAR(64) PRIMARY KEY,
		deferral_number VARCHAR(64) NOT NULL,
		dcl_number VARCHAR(64),
		customer_name VARCHAR(255),
		loan_type VARCHAR(128),
		current_due_date DATETIME,
		requested_days_sought INTEGER NOT NULL,
		extension_reason TEXT NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending_approval',
		creator_approval_status VARCHAR(32) DEFAULT 'pending',
		checker_approval_status VARCHAR(32) DEFAULT 'pending',
		current_approver_index INTEGER,
		created_by VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`},
	{"extension_approvers", `CREATE TABLE IF NOT EXISTS extension_approvers (
		id VARCHAR(64) PRIMARY KEY,
		extension_id VARCHAR(64) NOT NULL,
		position INTEGER NOT NULL,
		role VARCHAR(64) NOT NULL,
		user_id VARCHAR(64),
		name VARCHAR(255),
		email VARCHAR(255),
		approval_status VARCHAR(32) DEFAULT 'pending',
		is_current BOOLEAN DEFAULT 0,
		comment TEXT,
		approval_date DATETIME,
		approved_legacy BOOLEAN DEFAULT 0,
		rejected_legacy BOOLEAN DEFAULT 0
	)`},
	{"events", `CREATE TABLE IF NOT EXISTS events (
		id VARCHAR(64) PRIMARY KEY,
		aggregate_id VARCHAR(64) NOT NULL,
		type VARCHAR(64) NOT NULL,
		data TEXT NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		retry_count INTEGER DEFAULT 0,
		last_error TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`},
	{"audit_logs", `CREATE TABLE IF NOT EXISTS audit_logs (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		action VARCHAR(64) NOT NULL,
		resource_type VARCHAR(32) NOT NULL,
		resource_id VARCHAR(64) NOT NULL,
		request_id VARCHAR(64),
		ip VARCHAR(45),
		user_agent TEXT,
		details TEXT,
		created_at DATETIME NOT NULL
	)`},
	{"report_exports", `CREATE TABLE IF NOT EXISTS report_exports (
		id VARCHAR(64) PRIMARY KEY,
		checklist_id VARCHAR(64) NOT NULL,
		object_key VARCHAR(512) NOT NULL,
		filename VARCHAR(255) NOT NULL,
		token_hash VARCHAR(128) NOT NULL,
		size_bytes BIGINT,
		created_by VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL
	)`},
}

// createSQLiteTables 为 SQLite 手动创建表(使用 TEXT 替代 jsonb)
func createSQLiteTables(db *gorm.DB) error {
	for _, t := range sqliteTables {
		if err := db.Exec(t.ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}

var indexes = []struct {
	name string
	ddl  string
}{
	{"idx_checklists_status_sla", "CREATE INDEX IF NOT EXISTS idx_checklists_status_sla ON checklists(status, sla_expiry)"},
	{"idx_checklists_rm_id", "CREATE INDEX IF NOT EXISTS idx_checklists_rm_id ON checklists(rm_id)"},
	{"idx_checklists_created_at", "CREATE INDEX IF NOT EXISTS idx_checklists_created_at ON checklists(created_at)"},
	{"idx_documents_checklist", "CREATE INDEX IF NOT EXISTS idx_documents_checklist ON checklist_documents(checklist_id, position)"},
	{"idx_comments_checklist", "CREATE INDEX IF NOT EXISTS idx_comments_checklist ON checklist_comments(checklist_id, created_at)"},
	{"idx_decisions_document", "CREATE INDEX IF NOT EXISTS idx_decisions_document ON review_decisions(checklist_id, document_id)"},
	{"idx_history_checklist", "CREATE INDEX IF NOT EXISTS idx_history_checklist ON checklist_state_history(checklist_id, created_at)"},
	{"idx_extensions_status", "CREATE INDEX IF NOT EXISTS idx_extensions_status ON extensions(status, current_due_date)"},
	{"idx_extensions_deferral", "CREATE INDEX IF NOT EXISTS idx_extensions_deferral ON extensions(deferral_number)"},
	{"idx_approvers_extension", "CREATE INDEX IF NOT EXISTS idx_approvers_extension ON extension_approvers(extension_id, position)"},
	{"idx_events_status", "CREATE INDEX IF NOT EXISTS idx_events_status ON events(status, created_at)"},
	{"idx_events_aggregate", "CREATE INDEX IF NOT EXISTS idx_events_aggregate ON events(aggregate_id)"},
	{"idx_audit_resource", "CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)"},
	{"idx_audit_user_id", "CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)"},
	{"idx_exports_checklist", "CREATE INDEX IF NOT EXISTS idx_exports_checklist ON report_exports(checklist_id, created_at)"},
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	for _, idx := range indexes {
		if err := db.Exec(idx.ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", idx.name, err)
		}
	}

	// PostgreSQL 的 JSONB 字段使用 GIN 索引
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_drafts_data_gin ON checklist_drafts USING GIN (data)").Error; err != nil {
			return fmt.Errorf("failed to create idx_drafts_data_gin: %w", err)
		}
	}
	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}

// Stats 连接池统计,供指标采集使用
func Stats(db *gorm.DB) (open, inUse, idle int) {
	if db == nil {
		return 0, 0, 0
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, 0, 0
	}
	s := sqlDB.Stats()
	return s.OpenConnections, s.InUse, s.Idle
}
