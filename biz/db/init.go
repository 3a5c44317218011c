package db

import (
	"doing_now/authdb/biz/config"
	"doing_now/authdb/biz/db/mysql"
	"doing_now/authdb/biz/db/redis"
	"doing_now/authdb/biz/db/sqlite"

	"gorm.io/gorm"
)

func Init() {
	switch config.GetDatabaseConf().Driver {
	case "mysql":
		mysql.Init()
	default:
		sqlite.Init()
	}
	redis.Init()
}

// GetDbConn returns the connection of the configured driver.
func GetDbConn() *gorm.DB {
	if config.GetDatabaseConf().Driver == "mysql" {
		return mysql.GetDbConn()
	}
	return sqlite.GetDbConn()
}
