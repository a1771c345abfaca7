package database_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mautops/deferral-gin/internal/config"
	"github.com/mautops/deferral-gin/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TestBuildDSN 测试 DSN 构建
func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "deferral", SSLMode: "disable",
	})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=deferral sslmode=disable", dsn)
}

// TestResolvePoolConfig 测试连接池默认值
func TestResolvePoolConfig(t *testing.T) {
	pool := database.ResolvePoolConfig(config.DatabaseConfig{MaxOpenConns: 50})
	assert.Equal(t, 10, pool.MaxIdleConns)
	assert.Equal(t, 50, pool.MaxOpenConns)
	assert.Equal(t, 3600, pool.ConnMaxLifetime)
	assert.Equal(t, 600, pool.ConnMaxIdleTime)
}

// TestOpen_UnsupportedDriver 测试不支持的驱动
func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

// TestMigrate_SQLite 测试 SQLite 迁移可重复执行
func TestMigrate_SQLite(t *testing.T) {
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", DBName: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Migrate(db))

	for _, table := range []string{"checklists", "checklist_documents", "extensions", "extension_approvers", "events", "report_exports"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, database.CheckHealth(db))

	open, _, _ := database.Stats(db)
	assert.GreaterOrEqual(t, open, 1)
}

// TestCheckHealth_Sqlmock 测试健康检查的 ping 行为
func TestCheckHealth_Sqlmock(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	mock.ExpectPing()
	assert.True(t, database.CheckHealth(db))

	mock.ExpectPing().WillReturnError(assert.AnError)
	assert.False(t, database.CheckHealth(db))
	assert.False(t, database.CheckHealth(nil))
}

// TestCheckHealth_Closed 测试连接关闭后的健康检查
func TestCheckHealth_Closed(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.False(t, database.CheckHealth(db))
}
