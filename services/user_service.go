// services/user_service.go
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"seikatsu-backend/models"
	"seikatsu-backend/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserService handles registration, login and profiles
type UserService struct {
	DB        *gorm.DB
	Ledger    *XPLedger
	Log       logrus.FieldLogger
	JWTSecret string
	TokenTTL  time.Duration

	// BcryptCost 0 means bcrypt.DefaultCost
	BcryptCost int
}

func NewUserService(db *gorm.DB, ledger *XPLedger, secret string, ttl time.Duration, log logrus.FieldLogger) *UserService {
	return &UserService{DB: db, Ledger: ledger, JWTSecret: secret, TokenTTL: ttl, Log: log.WithField("component", "users")}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) Validate() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if l := len(in.Username); l < 3 || l > 64 {
		return invalid("username", "must be 3-64 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return invalid("email", "is not a valid address")
	}
	if len(in.Password) < 8 {
		return invalid("password", "must be at least 8 characters")
	}
	return nil
}

// Register creates the user and its aggregate XP row together
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, persist("hash password", err)
	}

	u := &models.User{Username: in.Username, Email: in.Email, HashedPassword: hash}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ? OR email = ?", in.Username, in.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &ValidationError{Field: "username", Message: "username or email already registered", Kind: ErrConflict}
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return s.Ledger.EnsureStats(tx, u.ID)
	})
	if err != nil {
		return nil, persist("register", err)
	}

	s.Log.WithField("user_id", u.ID).Info("👤 user registered")
	return u, nil
}

type LoginResult struct {
	utils.AccessToken
	TokenType string       `json:"token_type"`
	User      *models.User `json:"user"`
}

var errBadCredentials = &ValidationError{Field: "credentials", Message: "invalid username or password"}

// Login accepts a username or an email as the identifier
func (s *UserService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	var u models.User
	err := s.DB.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, persist("login", err)
	}
	if !utils.VerifyPassword(u.HashedPassword, password) {
		return nil, errBadCredentials
	}

	tok, err := utils.NewAccessToken(s.JWTSecret, u.ID, s.TokenTTL)
	if err != nil {
		return nil, persist("issue token", err)
	}
	return &LoginResult{AccessToken: tok, TokenType: "bearer", User: &u}, nil
}

type Profile struct {
	*models.User
	Progress LevelProgress `json:"progress"`
}

// Profile returns the user with stats and level progress
func (s *UserService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Preload("Stats").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user", userID)
	}
	if err != nil {
		return nil, persist("profile", err)
	}
	var total int64
	if u.Stats != nil {
		total = u.Stats.TotalXP
	}
	return &Profile{User: &u, Progress: CalculateLevelProgress(total)}, nil
}
