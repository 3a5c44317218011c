package convert

import (
	"time"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/model/domain"

	"github.com/spf13/cast"
)

func UserRecordToDomain(r adapter.Record) *domain.User {
	if r == nil {
		return nil
	}
	u := &domain.User{
		ID:            cast.ToString(r["id"]),
		Name:          cast.ToString(r["name"]),
		Email:         cast.ToString(r["email"]),
		EmailVerified: cast.ToBool(r["emailVerified"]),
		Image:         optionalString(r["image"]),
		CreatedAt:     toTime(r["createdAt"]),
		UpdatedAt:     toTime(r["updatedAt"]),
	}
	for _, a := range records(r["account"]) {
		u.Accounts = append(u.Accounts, AccountRecordToDomain(a))
	}
	return u
}

func SessionRecordToDomain(r adapter.Record) *domain.Session {
	if r == nil {
		return nil
	}
	s := &domain.Session{
		ID:        cast.ToString(r["id"]),
		Token:     cast.ToString(r["token"]),
		UserID:    cast.ToString(r["userId"]),
		ExpiresAt: toTime(r["expiresAt"]),
		IPAddress: optionalString(r["ipAddress"]),
		UserAgent: optionalString(r["userAgent"]),
		CreatedAt: toTime(r["createdAt"]),
		UpdatedAt: toTime(r["updatedAt"]),
	}
	if u, ok := r["user"].(adapter.Record); ok {
		s.User = UserRecordToDomain(u)
	}
	return s
}

func AccountRecordToDomain(r adapter.Record) *domain.Account {
	if r == nil {
		return nil
	}
	return &domain.Account{
		ID:         cast.ToString(r["id"]),
		AccountID:  cast.ToString(r["accountId"]),
		ProviderID: cast.ToString(r["providerId"]),
		UserID:     cast.ToString(r["userId"]),
		Scope:      optionalString(r["scope"]),
		CreatedAt:  toTime(r["createdAt"]),
		UpdatedAt:  toTime(r["updatedAt"]),
	}
}

func VerificationRecordToDomain(r adapter.Record) *domain.Verification {
	if r == nil {
		return nil
	}
	return &domain.Verification{
		ID:         cast.ToString(r["id"]),
		Identifier: cast.ToString(r["identifier"]),
		Value:      cast.ToString(r["value"]),
		ExpiresAt:  toTime(r["expiresAt"]),
		CreatedAt:  toTime(r["createdAt"]),
		UpdatedAt:  toTime(r["updatedAt"]),
	}
}

func SessionDomainToRecord(s *domain.Session) adapter.Record {
	if s == nil {
		return nil
	}
	r := adapter.Record{
		"token":     s.Token,
		"userId":    s.UserID,
		"expiresAt": s.ExpiresAt,
		"ipAddress": nilIfEmpty(s.IPAddress),
		"userAgent": nilIfEmpty(s.UserAgent),
	}
	if s.ID != "" {
		r["id"] = s.ID
	}
	return r
}

func records(v any) []adapter.Record {
	switch rows := v.(type) {
	case []adapter.Record:
		return rows
	case adapter.Record:
		return []adapter.Record{rows}
	}
	return nil
}

func toTime(v any) time.Time {
	if v == nil {
		return time.Time{}
	}
	return cast.ToTime(v)
}

func optionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := cast.ToString(v)
	return &s
}

func nilIfEmpty(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
