package storage

import (
	"time"
)

// Column names follow the logical field keys so the adapter can address them
// without overrides.

type UserRecord struct {
	ID            string    `gorm:"column:id;primaryKey;size:64"`
	Name          string    `gorm:"column:name;size:255;not null"`
	Email         string    `gorm:"column:email;size:255;not null;uniqueIndex"` // 登录邮箱
	EmailVerified bool      `gorm:"column:emailVerified;not null;default:false"`
	Image         *string   `gorm:"column:image;size:1024"`
	CreatedAt     time.Time `gorm:"column:createdAt;not null"`
	UpdatedAt     time.Time `gorm:"column:updatedAt;not null"`
}

func (UserRecord) TableName() string {
	return "user"
}

type SessionRecord struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"column:expiresAt;not null"`
	Token     string    `gorm:"column:token;size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:createdAt;not null"`
	UpdatedAt time.Time `gorm:"column:updatedAt;not null"`
	IPAddress *string   `gorm:"column:ipAddress;size:64"`
	UserAgent *string   `gorm:"column:userAgent;size:1024"`
	UserID    string    `gorm:"column:userId;size:64;not null;index"`
}

func (SessionRecord) TableName() string {
	return "session"
}

type AccountRecord struct {
	ID                    string     `gorm:"column:id;primaryKey;size:64"`
	AccountID             string     `gorm:"column:accountId;size:255;not null"`
	ProviderID            string     `gorm:"column:providerId;size:64;not null"` // credential 为密码登录
	UserID                string     `gorm:"column:userId;size:64;not null;index"`
	AccessToken           *string    `gorm:"column:accessToken;type:text"`
	RefreshToken          *string    `gorm:"column:refreshToken;type:text"`
	IDToken               *string    `gorm:"column:idToken;type:text"`
	AccessTokenExpiresAt  *time.Time `gorm:"column:accessTokenExpiresAt"`
	RefreshTokenExpiresAt *time.Time `gorm:"column:refreshTokenExpiresAt"`
	Scope                 *string    `gorm:"column:scope;size:1024"`
	Password              *string    `gorm:"column:password;size:255"` // 密码哈希
	CreatedAt             time.Time  `gorm:"column:createdAt;not null"`
	UpdatedAt             time.Time  `gorm:"column:updatedAt;not null"`
}

func (AccountRecord) TableName() string {
	return "account"
}

type VerificationRecord struct {
	ID         string    `gorm:"column:id;primaryKey;size:64"`
	Identifier string    `gorm:"column:identifier;size:255;not null;index"`
	Value      string    `gorm:"column:value;type:text;not null"`
	ExpiresAt  time.Time `gorm:"column:expiresAt;not null"`
	CreatedAt  time.Time `gorm:"column:createdAt;not null"`
	UpdatedAt  time.Time `gorm:"column:updatedAt;not null"`
}

func (VerificationRecord) TableName() string {
	return "verification"
}

type RateLimitRecord struct {
	ID          string `gorm:"column:id;primaryKey;size:64"`
	Key         string `gorm:"column:key;size:255;not null;uniqueIndex"`
	Count       int    `gorm:"column:count;not null"`
	LastRequest int64  `gorm:"column:lastRequest;not null"`
}

func (RateLimitRecord) TableName() string {
	return "rateLimit"
}
