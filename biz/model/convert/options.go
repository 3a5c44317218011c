package convert

import (
	"time"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/config"
	"doing_now/authdb/biz/model/options"
)

// AuthConfToOptions maps the auth section of the deployment config. The secondary
// storage is wired by the caller.
func AuthConfToOptions(c config.AuthConf) *options.Options {
	return &options.Options{
		User: tableOptions(c.User),
		Session: options.SessionOptions{
			TableOptions:           tableOptions(c.Session.TableConf),
			StoreSessionInDatabase: c.Session.StoreInDatabase,
			ExpiresIn:              time.Duration(c.Session.ExpiresIn) * time.Second,
		},
		Account:      tableOptions(c.Account),
		Verification: tableOptions(c.Verification),
		RateLimit: options.RateLimitOptions{
			Enabled:   c.RateLimit.Enabled,
			Storage:   c.RateLimit.Storage,
			ModelName: c.RateLimit.ModelName,
			Fields:    c.RateLimit.Fields,
			Window:    time.Duration(c.RateLimit.Window) * time.Second,
			Max:       c.RateLimit.Max,
		},
		Advanced: options.AdvancedOptions{Database: options.DatabaseOptions{
			UseNumberID:          c.UseNumberID,
			GenerateID:           c.GenerateID,
			DefaultFindManyLimit: c.DefaultFindManyLimit,
		}},
		Experimental: options.ExperimentalOptions{Joins: c.ExperimentalJoins},
	}
}

// DebugLogsConfToAdapter returns nil Methods when none are listed so Enabled applies.
func DebugLogsConfToAdapter(c config.DebugLogsConf, sink adapter.LogSink) adapter.DebugLogs {
	d := adapter.DebugLogs{Enabled: c.Enabled, Capture: c.Capture, Sink: sink}
	if len(c.Methods) > 0 {
		d.Methods = make(map[string]bool, len(c.Methods))
		for _, m := range c.Methods {
			d.Methods[m] = true
		}
	}
	return d
}

func tableOptions(c config.TableConf) options.TableOptions {
	return options.TableOptions{ModelName: c.ModelName, Fields: c.Fields}
}
