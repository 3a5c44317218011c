package config

import (
	"os"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

func Init(filepath string) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		panic(err)
	}

	var conf ServiceConf
	if err := yaml.Unmarshal(content, &conf); err != nil {
		panic(err)
	}
	if err := validator.New().Struct(conf); err != nil {
		panic(err)
	}
	if conf.Auth.RateLimit.Storage == "secondary-storage" && !conf.Redis.Enabled() {
		panic("auth.rate_limit.storage secondary-storage requires redis.ip")
	}
	globalConfig = conf

	hlog.Debugf("config debug: %+v", globalConfig)
}

func GetDatabaseConf() DatabaseConf {
	return globalConfig.Database
}

func GetRedisConf() RedisConf {
	return globalConfig.Redis
}

func GetLoggerConf() LoggerConf {
	return globalConfig.Logger
}

func GetAuthConf() AuthConf {
	return globalConfig.Auth
}

var globalConfig ServiceConf

type ServiceConf struct {
	Database DatabaseConf `yaml:"database"`
	Redis    RedisConf    `yaml:"redis"`
	Logger   LoggerConf   `yaml:"logger"`
	Auth     AuthConf     `yaml:"auth"`
}

type DatabaseConf struct {
	Driver   string `yaml:"driver" validate:"omitempty,oneof=mysql sqlite"`
	DBName   string `yaml:"db_name"`
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Path is the sqlite file, ":memory:" when empty.
	Path string `yaml:"path"`
}

type RedisConf struct {
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

func (c RedisConf) Enabled() bool {
	return c.IP != ""
}

type LoggerConf struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=trace debug info notice warn error fatal"`
	Dir        string `yaml:"dir"`
	FileName   string `yaml:"file_name"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

type AuthConf struct {
	UsePlural            bool   `yaml:"use_plural"`
	UseNumberID          bool   `yaml:"use_number_id"`
	GenerateID           string `yaml:"generate_id" validate:"omitempty,oneof=uuid serial"`
	DefaultFindManyLimit int    `yaml:"default_find_many_limit" validate:"gte=0"`
	ExperimentalJoins    bool   `yaml:"experimental_joins"`

	DebugLogs    DebugLogsConf `yaml:"debug_logs"`
	User         TableConf     `yaml:"user"`
	Session      SessionConf   `yaml:"session"`
	Account      TableConf     `yaml:"account"`
	Verification TableConf     `yaml:"verification"`
	RateLimit    RateLimitConf `yaml:"rate_limit"`
}

type DebugLogsConf struct {
	Enabled bool     `yaml:"enabled"`
	Methods []string `yaml:"methods" validate:"dive,oneof=create findOne findMany update updateMany delete deleteMany count"`
	Capture bool     `yaml:"capture"`
}

type TableConf struct {
	ModelName string            `yaml:"model_name"`
	Fields    map[string]string `yaml:"fields"`
}

type SessionConf struct {
	TableConf       `yaml:",inline"`
	StoreInDatabase bool `yaml:"store_in_database"`
	// ExpiresIn is in seconds.
	ExpiresIn int `yaml:"expires_in" validate:"gte=0"`
}

type RateLimitConf struct {
	Enabled   *bool             `yaml:"enabled"`
	Storage   string            `yaml:"storage" validate:"omitempty,oneof=memory database secondary-storage"`
	ModelName string            `yaml:"model_name"`
	Fields    map[string]string `yaml:"fields"`
	// Window is in seconds.
	Window int `yaml:"window" validate:"gte=0"`
	Max    int `yaml:"max" validate:"gte=0"`
}
