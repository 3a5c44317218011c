package auth

import (
	"context"
	"time"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/model/convert"
	"doing_now/authdb/biz/model/domain"
	"doing_now/authdb/biz/model/errs"
	"doing_now/authdb/biz/schema/registry"
)

func (s *Service) CreateVerification(ctx context.Context, identifier, value string, expiresIn time.Duration) (*domain.Verification, errs.Error) {
	rec, err := s.db.Create(ctx, adapter.CreateRequest{
		Model: registry.ModelVerification,
		Data: adapter.Record{
			"identifier": identifier,
			"value":      value,
			"expiresAt":  time.Now().Add(expiresIn),
		},
	})
	if err != nil {
		return nil, bizErr(ctx, "create verification", err)
	}
	return convert.VerificationRecordToDomain(rec), nil
}

// FindVerification returns the newest value issued for identifier. An expired one
// is deleted.
func (s *Service) FindVerification(ctx context.Context, identifier string) (*domain.Verification, errs.Error) {
	recs, err := s.db.FindMany(ctx, adapter.FindManyRequest{
		Model:  registry.ModelVerification,
		Where:  []adapter.Where{eq("identifier", identifier)},
		SortBy: &adapter.SortBy{Field: "createdAt", Direction: adapter.SortDesc},
		Limit:  1,
	})
	if err != nil {
		return nil, bizErr(ctx, "find verification", err)
	}
	if len(recs) == 0 {
		return nil, errs.VerificationNotExist
	}
	v := convert.VerificationRecordToDomain(recs[0])
	if !v.ExpiresAt.After(time.Now()) {
		if e := s.DeleteVerification(ctx, v.ID); e != nil {
			return nil, e
		}
		return nil, errs.VerificationNotExist
	}
	return v, nil
}

func (s *Service) DeleteVerification(ctx context.Context, id string) errs.Error {
	err := s.db.Delete(ctx, adapter.DeleteRequest{
		Model: registry.ModelVerification,
		Where: []adapter.Where{eq("id", id)},
	})
	return bizErr(ctx, "delete verification", err)
}

// DeleteExpiredVerifications removes every verification past its expiry.
func (s *Service) DeleteExpiredVerifications(ctx context.Context) (int64, errs.Error) {
	n, err := s.db.DeleteMany(ctx, adapter.DeleteRequest{
		Model: registry.ModelVerification,
		Where: []adapter.Where{{Field: "expiresAt", Value: time.Now(), Operator: adapter.OpLte}},
	})
	if err != nil {
		return 0, bizErr(ctx, "delete expired verifications", err)
	}
	return n, nil
}
