package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/config"
	"doing_now/authdb/biz/dal/gormdb"
	"doing_now/authdb/biz/dal/kv"
	"doing_now/authdb/biz/db"
	"doing_now/authdb/biz/db/redis"
	"doing_now/authdb/biz/model/convert"
	"doing_now/authdb/biz/service/auth"
	"doing_now/authdb/biz/util/interceptor"
	"doing_now/authdb/biz/util/logger"
	"doing_now/authdb/biz/util/trace_info"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const cleanupInterval = 10 * time.Minute

var (
	confPath = flag.String("conf", "./conf/deploy.yml", "config file path")
	generate = flag.String("generate", "", "write the schema manifest to this file and exit")
	migrate  = flag.Bool("migrate", false, "create the core tables on start")
)

type App struct {
	Adapter *adapter.Adapter
	Auth    *auth.Service
	// RateLimit is nil when rate limiting is disabled. The binary itself serves
	// no requests; an HTTP layer embedding App calls it per client key.
	RateLimit *interceptor.Interceptor
}

// NewApp builds the adapter over the initialized connections.
func NewApp() (*App, error) {
	authConf := config.GetAuthConf()
	opts := convert.AuthConfToOptions(authConf)
	if rdb := redis.GetRedisClient(); rdb != nil {
		opts.SecondaryStorage = kv.NewRedisStorage(rdb, "")
	}

	conn := db.GetDbConn()
	cfg := gormdb.Config(conn.Dialector.Name())
	cfg.UsePlural = authConf.UsePlural
	var sink adapter.LogSink
	if !authConf.DebugLogs.Capture {
		sink = adapter.NewLogrusSink(logger.NewDebugLogger())
	}
	cfg.DebugLogs = convert.DebugLogsConfToAdapter(authConf.DebugLogs, sink)

	a, err := gormdb.NewFactoryWithConfig(conn, cfg)(opts)
	if err != nil {
		return nil, err
	}
	rateLimit, err := interceptor.NewFromOptions(opts.RateLimit, a)
	if err != nil {
		return nil, err
	}
	return &App{
		Adapter:   a,
		Auth:      auth.New(a),
		RateLimit: rateLimit,
	}, nil
}

// WriteSchema writes the manifest honoring the file's append and overwrite flags.
func WriteSchema(ctx context.Context, a adapter.DBAdapter, path string) (string, error) {
	file, err := a.CreateSchema(ctx, path)
	if err != nil {
		return "", err
	}

	flags := os.O_CREATE | os.O_WRONLY
	switch {
	case file.Append:
		flags |= os.O_APPEND
	case file.Overwrite:
		flags |= os.O_TRUNC
	default:
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(file.Path, flags, 0644)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(file.Code); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return file.Path, nil
}

func run(ctx context.Context, app *App) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, bizErr := app.Auth.DeleteExpiredVerifications(ctx)
			if bizErr != nil {
				hlog.CtxWarnf(ctx, "purge expired verifications failed: %v", bizErr)
				continue
			}
			hlog.CtxInfof(ctx, "purged %d expired verifications", n)
		}
	}
}

func main() {
	flag.Parse()

	config.Init(*confPath)
	logger.Init()
	db.Init()

	ctx, _ := trace_info.EnsureLogId(context.Background())
	app, err := NewApp()
	if err != nil {
		hlog.CtxFatalf(ctx, "build adapter failed: %v", err)
	}

	if *generate != "" {
		path, err := WriteSchema(ctx, app.Adapter, *generate)
		if err != nil {
			hlog.CtxFatalf(ctx, "generate schema failed: %v", err)
		}
		fmt.Println(path)
		return
	}

	if *migrate {
		if err := gormdb.Migrate(ctx, db.GetDbConn(), app.Adapter.Helpers()); err != nil {
			hlog.CtxFatalf(ctx, "migrate failed: %v", err)
		}
	}

	users, bizErr := app.Auth.CountUsers(ctx)
	if bizErr != nil {
		hlog.CtxFatalf(ctx, "auth database not reachable: %v", bizErr)
	}
	hlog.CtxInfof(ctx, "adapter %s ready, instance=%s users=%d rate_limit=%t", app.Adapter.ID(), app.Adapter.Instance(), users, app.RateLimit != nil)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	run(ctx, app)
}
