package auth

import (
	"context"
	"time"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/model/convert"
	"doing_now/authdb/biz/model/domain"
	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/schema/registry"
	"doing_now/authdb/biz/util/id_gen"
	"doing_now/authdb/biz/util/random"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const activeSessionsPrefix = "active-sessions-"

type activeSession struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (s *Service) storesInDatabase() bool {
	return s.opts.StoresSessionInDatabase()
}

// CreateSession issues a new token for the user. With a secondary storage the
// session and its user are cached under the token until expiry.
func (s *Service) CreateSession(ctx context.Context, userID, ipAddress, userAgent string) (*domain.Session, errs.Error) {
	now := time.Now()
	sess := &domain.Session{
		Token:     random.RandStr(tokenLength),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionExpiresIn()),
		IPAddress: optional(ipAddress),
		UserAgent: optional(userAgent),
	}

	if s.storesInDatabase() {
		rec, err := s.db.Create(ctx, adapter.CreateRequest{
			Model: registry.ModelSession,
			Data:  convert.SessionDomainToRecord(sess),
		})
		if err != nil {
			return nil, bizErr(ctx, "create session", err)
		}
		sess = convert.SessionRecordToDomain(rec)
	} else {
		sess.ID = id_gen.NewID()
		sess.CreatedAt = now
		sess.UpdatedAt = now
	}

	if s.secondary == nil {
		return sess, nil
	}
	user, e := s.sessionUser(ctx, userID)
	if e != nil {
		return nil, e
	}
	sess.User = user
	if err := s.cacheSession(ctx, sess, now); err != nil {
		hlog.CtxErrorf(ctx, "cache session of user %s failed: %v", userID, err)
		return nil, errs.ServerError
	}
	return sess, nil
}

// sessionUser resolves the session owner without its accounts.
func (s *Service) sessionUser(ctx context.Context, userID string) (*domain.User, errs.Error) {
	rec, err := s.db.FindOne(ctx, adapter.FindOneRequest{
		Model: registry.ModelUser,
		Where: []adapter.Where{eq("id", userID)},
	})
	if err != nil {
		return nil, bizErr(ctx, "find session user", err)
	}
	if rec == nil {
		return nil, errs.UserNotExist
	}
	return convert.UserRecordToDomain(rec), nil
}

func (s *Service) cacheSession(ctx context.Context, sess *domain.Session, now time.Time) error {
	payload, err := sonic.MarshalString(sess)
	if err != nil {
		return err
	}
	ttl := sess.ExpiresAt.Sub(now)
	if err := s.secondary.Set(ctx, sess.Token, payload, ttl); err != nil {
		return err
	}

	active, err := s.activeSessions(ctx, sess.UserID, now)
	if err != nil {
		return err
	}
	active = append(active, activeSession{Token: sess.Token, ExpiresAt: sess.ExpiresAt.UnixMilli()})
	return s.saveActiveSessions(ctx, sess.UserID, active, now)
}

// activeSessions returns the user's cached tokens that have not expired yet.
func (s *Service) activeSessions(ctx context.Context, userID string, now time.Time) ([]activeSession, error) {
	raw, err := s.secondary.Get(ctx, activeSessionsPrefix+userID)
	if err != nil || raw == "" {
		return nil, err
	}
	var list []activeSession
	if err := sonic.UnmarshalString(raw, &list); err != nil {
		return nil, err
	}
	live := list[:0]
	for _, a := range list {
		if a.ExpiresAt > now.UnixMilli() {
			live = append(live, a)
		}
	}
	return live, nil
}

func (s *Service) saveActiveSessions(ctx context.Context, userID string, list []activeSession, now time.Time) error {
	if len(list) == 0 {
		return s.secondary.Delete(ctx, activeSessionsPrefix+userID)
	}
	var furthest int64
	for _, a := range list {
		if a.ExpiresAt > furthest {
			furthest = a.ExpiresAt
		}
	}
	payload, err := sonic.MarshalString(list)
	if err != nil {
		return err
	}
	ttl := time.UnixMilli(furthest).Sub(now)
	return s.secondary.Set(ctx, activeSessionsPrefix+userID, payload, ttl)
}

func (s *Service) cachedSession(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := s.secondary.Get(ctx, token)
	if err != nil || raw == "" {
		return nil, err
	}
	var sess domain.Session
	if err := sonic.UnmarshalString(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// FindSession returns the session with its user. Expired sessions are removed
// and reported as missing.
func (s *Service) FindSession(ctx context.Context, token string) (*domain.Session, errs.Error) {
	now := time.Now()
	if s.secondary != nil {
		sess, err := s.cachedSession(ctx, token)
		if err != nil {
			return nil, bizErr(ctx, "read cached session", err)
		}
		if sess != nil && !sess.Expired(now) {
			return sess, nil
		}
		if !s.storesInDatabase() {
			return nil, errs.SessionNotExist
		}
	}

	rec, err := s.db.FindOne(ctx, adapter.FindOneRequest{
		Model: registry.ModelSession,
		Where: []adapter.Where{eq("token", token)},
		Join:  map[string]adapter.JoinOption{registry.ModelUser: {}},
	})
	if err != nil {
		return nil, bizErr(ctx, "find session", err)
	}
	if rec == nil {
		return nil, errs.SessionNotExist
	}
	sess := convert.SessionRecordToDomain(rec)
	if sess.Expired(now) {
		if e := s.DeleteSession(ctx, token); e != nil {
			return nil, e
		}
		return nil, errs.SessionNotExist
	}
	return sess, nil
}

// ListSessions returns the user's live sessions, newest first when they come
// from the database.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]*domain.Session, errs.Error) {
	now := time.Now()
	if !s.storesInDatabase() {
		active, err := s.activeSessions(ctx, userID, now)
		if err != nil {
			return nil, bizErr(ctx, "list cached sessions", err)
		}
		out := make([]*domain.Session, 0, len(active))
		for _, a := range active {
			sess, err := s.cachedSession(ctx, a.Token)
			if err != nil {
				return nil, bizErr(ctx, "read cached session", err)
			}
			if sess != nil {
				out = append(out, sess)
			}
		}
		return out, nil
	}

	recs, err := s.db.FindMany(ctx, adapter.FindManyRequest{
		Model:  registry.ModelSession,
		Where:  []adapter.Where{eq("userId", userID), {Field: "expiresAt", Value: now, Operator: adapter.OpGt}},
		SortBy: &adapter.SortBy{Field: "createdAt", Direction: adapter.SortDesc},
	})
	if err != nil {
		return nil, bizErr(ctx, "list sessions", err)
	}
	out := make([]*domain.Session, 0, len(recs))
	for _, rec := range recs {
		out = append(out, convert.SessionRecordToDomain(rec))
	}
	return out, nil
}

func (s *Service) DeleteSession(ctx context.Context, token string) errs.Error {
	if s.secondary != nil {
		if err := s.secondary.Delete(ctx, token); err != nil {
			return bizErr(ctx, "delete cached session", err)
		}
	}
	if !s.storesInDatabase() {
		return nil
	}
	_, err := s.db.DeleteMany(ctx, adapter.DeleteRequest{
		Model: registry.ModelSession,
		Where: []adapter.Where{eq("token", token)},
	})
	return bizErr(ctx, "delete session", err)
}

// DeleteUserSessions signs the user out everywhere and reports how many database
// rows were removed.
func (s *Service) DeleteUserSessions(ctx context.Context, userID string) (int64, errs.Error) {
	if s.secondary != nil {
		active, err := s.activeSessions(ctx, userID, time.Now())
		if err != nil {
			return 0, bizErr(ctx, "list cached sessions", err)
		}
		for _, a := range active {
			if err := s.secondary.Delete(ctx, a.Token); err != nil {
				return 0, bizErr(ctx, "delete cached session", err)
			}
		}
		if err := s.secondary.Delete(ctx, activeSessionsPrefix+userID); err != nil {
			return 0, bizErr(ctx, "delete cached session list", err)
		}
	}
	if !s.storesInDatabase() {
		return 0, nil
	}
	n, err := s.db.DeleteMany(ctx, adapter.DeleteRequest{
		Model: registry.ModelSession,
		Where: []adapter.Where{eq("userId", userID)},
	})
	if err != nil {
		return 0, bizErr(ctx, "delete user sessions", err)
	}
	return n, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
