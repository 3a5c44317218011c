// Package auth holds the data-access helpers of the authentication core. Every
// query goes through the adapter so naming, id and type rules apply uniformly.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/model/convert"
	"doing_now/authdb/biz/model/domain"
	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/model/options"
	"doing_now/authdb/biz/schema"
	"doing_now/authdb/biz/schema/registry"
	"doing_now/authdb/biz/util/encode"
	"doing_now/authdb/biz/util/random"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const (
	DefaultSessionExpiresIn = 7 * 24 * time.Hour

	saltLength  = 16
	tokenLength = 32
)

type Service struct {
	db        adapter.DBAdapter
	opts      *options.Options
	tables    schema.DBSchema
	secondary options.SecondaryStorage
}

func New(db adapter.DBAdapter) *Service {
	opts := db.Options()
	return &Service{
		db:        db,
		opts:      opts,
		tables:    registry.GetAuthTables(opts),
		secondary: opts.SecondaryStorage,
	}
}

func (s *Service) sessionExpiresIn() time.Duration {
	if s.opts.Session.ExpiresIn > 0 {
		return s.opts.Session.ExpiresIn
	}
	return DefaultSessionExpiresIn
}

func eq(field string, value any) adapter.Where {
	return adapter.Where{Field: field, Value: value}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bizErr passes coded errors through and hides everything else behind ServerError.
func bizErr(ctx context.Context, op string, err error) errs.Error {
	if err == nil {
		return nil
	}
	var e errs.Error
	if errors.As(err, &e) {
		return e
	}
	hlog.CtxErrorf(ctx, "%s failed: %v", op, err)
	return errs.ServerError
}

// Public strips fields that are not returned to clients, like account tokens and
// password hashes.
func (s *Service) Public(model string, rec adapter.Record) adapter.Record {
	if rec == nil {
		return nil
	}
	t, ok := s.tables[model]
	if !ok {
		return rec
	}
	out := make(adapter.Record, len(rec))
	for k, v := range rec {
		if attr, ok := t.Fields[k]; ok && !attr.IsReturned() {
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Service) CreateUser(ctx context.Context, name, email string, image *string) (*domain.User, errs.Error) {
	data := adapter.Record{"name": name, "email": normalizeEmail(email)}
	if image != nil {
		data["image"] = *image
	}
	rec, err := s.db.Create(ctx, adapter.CreateRequest{Model: registry.ModelUser, Data: data})
	if errors.Is(err, errs.DuplicateKey) {
		return nil, errs.UserEmailDuplicated
	}
	if err != nil {
		return nil, bizErr(ctx, "create user", err)
	}
	return convert.UserRecordToDomain(rec), nil
}

// Register creates the user and its credential account atomically.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, errs.Error) {
	email = normalizeEmail(email)
	var user *domain.User
	err := s.db.Transaction(ctx, func(ctx context.Context, tx adapter.DBTransactionAdapter) error {
		existing, err := tx.FindOne(ctx, adapter.FindOneRequest{
			Model:  registry.ModelUser,
			Where:  []adapter.Where{eq("email", email)},
			Select: []string{"id"},
		})
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.UserEmailDuplicated
		}

		rec, err := tx.Create(ctx, adapter.CreateRequest{
			Model: registry.ModelUser,
			Data:  adapter.Record{"name": name, "email": email},
		})
		if err != nil {
			return err
		}
		user = convert.UserRecordToDomain(rec)

		acc, err := tx.Create(ctx, adapter.CreateRequest{
			Model: registry.ModelAccount,
			Data: adapter.Record{
				"accountId":  user.ID,
				"providerId": domain.ProviderCredential,
				"userId":     user.ID,
				"password":   encode.HashPassword(random.RandStr(saltLength), password),
			},
		})
		if err != nil {
			return err
		}
		user.Accounts = append(user.Accounts, convert.AccountRecordToDomain(acc))
		return nil
	})
	if errors.Is(err, errs.DuplicateKey) {
		return nil, errs.UserEmailDuplicated
	}
	if err != nil {
		return nil, bizErr(ctx, "register", err)
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, errs.Error) {
	rec, err := s.db.FindOne(ctx, adapter.FindOneRequest{
		Model: registry.ModelUser,
		Where: []adapter.Where{eq("email", normalizeEmail(email))},
	})
	if err != nil {
		return nil, bizErr(ctx, "find user", err)
	}
	if rec == nil {
		return nil, errs.UserNotExist
	}
	user := convert.UserRecordToDomain(rec)

	acc, err := s.db.FindOne(ctx, adapter.FindOneRequest{
		Model: registry.ModelAccount,
		Where: []adapter.Where{eq("userId", user.ID), eq("providerId", domain.ProviderCredential)},
	})
	if err != nil {
		return nil, bizErr(ctx, "find credential account", err)
	}
	if acc == nil {
		return nil, errs.CredentialAccountMiss
	}
	hashed, _ := acc["password"].(string)
	if !encode.VerifyPassword(hashed, password) {
		return nil, errs.PasswordIncorrect
	}
	return user, nil
}

func (s *Service) FindUserByEmail(ctx context.Context, email string) (*domain.User, errs.Error) {
	rec, err := s.db.FindOne(ctx, adapter.FindOneRequest{
		Model: registry.ModelUser,
		Where: []adapter.Where{eq("email", normalizeEmail(email))},
	})
	if err != nil {
		return nil, bizErr(ctx, "find user by email", err)
	}
	if rec == nil {
		return nil, errs.UserNotExist
	}
	return convert.UserRecordToDomain(rec), nil
}

// FindUserByID loads the user together with its linked accounts.
func (s *Service) FindUserByID(ctx context.Context, id string) (*domain.User, errs.Error) {
	rec, err := s.db.FindOne(ctx, adapter.FindOneRequest{
		Model: registry.ModelUser,
		Where: []adapter.Where{eq("id", id)},
		Join:  map[string]adapter.JoinOption{registry.ModelAccount: {}},
	})
	if err != nil {
		return nil, bizErr(ctx, "find user by id", err)
	}
	if rec == nil {
		return nil, errs.UserNotExist
	}
	return convert.UserRecordToDomain(rec), nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, update adapter.Record) (*domain.User, errs.Error) {
	if email, ok := update["email"].(string); ok {
		update["email"] = normalizeEmail(email)
	}
	rec, err := s.db.Update(ctx, adapter.UpdateRequest{
		Model:  registry.ModelUser,
		Where:  []adapter.Where{eq("id", id)},
		Update: update,
	})
	if errors.Is(err, errs.DuplicateKey) {
		return nil, errs.UserEmailDuplicated
	}
	if err != nil {
		return nil, bizErr(ctx, "update user", err)
	}
	if rec == nil {
		return nil, errs.UserNotExist
	}
	return convert.UserRecordToDomain(rec), nil
}

// ListAccounts returns the user's accounts without token or password columns.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]adapter.Record, errs.Error) {
	recs, err := s.db.FindMany(ctx, adapter.FindManyRequest{
		Model: registry.ModelAccount,
		Where: []adapter.Where{eq("userId", userID)},
	})
	if err != nil {
		return nil, bizErr(ctx, "list accounts", err)
	}
	out := make([]adapter.Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.Public(registry.ModelAccount, rec))
	}
	return out, nil
}

func (s *Service) CountUsers(ctx context.Context) (int64, errs.Error) {
	n, err := s.db.Count(ctx, adapter.CountRequest{Model: registry.ModelUser})
	if err != nil {
		return 0, bizErr(ctx, "count users", err)
	}
	return n, nil
}
