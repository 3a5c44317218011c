package sqlite

import (
	"doing_now/authdb/biz/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func Init() {
	path := config.GetDatabaseConf().Path
	if path == "" {
		path = ":memory:"
	}

	var err error
	db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)
}

func GetDbConn() *gorm.DB {
	return db
}
