package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// アクセストークンの発行
type TokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// 平文(plain)をbcryptで比較
func (h *BcryptPasswordHasher) Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
	Address  string
}

type LoginInput struct {
	Email    string
	Password string
}

type AccessTokenDTO struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

type LoginOutput struct {
	User  model.User     `json:"user"`
	Token AccessTokenDTO `json:"token"`
}

type AuthUsecase struct {
	users  repository.UserRepository
	hasher PasswordHasher
	issuer TokenIssuer
	clock  Clock
}

func NewAuthUsecase(users repository.UserRepository, hasher PasswordHasher, issuer TokenIssuer, clock Clock) *AuthUsecase {
	if clock == nil {
		clock = SystemClock()
	}
	return &AuthUsecase{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		clock:  clock,
	}
}

// 管理者は自分で登録できない
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 60 {
		return model.User{}, NewHTTPError(KindValidation, "name is required (max 60 chars)")
	}
	email, ok := normalizeEmail(in.Email)
	if !ok {
		return model.User{}, NewHTTPError(KindValidation, "invalid email")
	}
	if len(in.Password) < minPasswordLength {
		return model.User{}, NewHTTPError(KindValidation, "password must be at least 8 characters")
	}

	role := model.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	if role == "" {
		role = model.RoleBuyer
	}
	if role != model.RoleBuyer && role != model.RoleSeller {
		return model.User{}, NewHTTPError(KindValidation, "role must be buyer or seller")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, WrapHTTPError(KindInternal, err, "internal error")
	}

	now := u.clock.Now()
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return model.User{}, NewHTTPError(KindConflict, "email already registered")
		}
		return model.User{}, dbError(err)
	}
	return *user, nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email, ok := normalizeEmail(in.Email)
	if !ok || in.Password == "" {
		return LoginOutput{}, NewHTTPError(KindValidation, "email and password are required")
	}

	//存在しない場合もパスワード違いと同じ応答
	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return LoginOutput{}, NewHTTPError(KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return LoginOutput{}, dbError(err)
	}
	if !u.hasher.Verify(in.Password, user.PasswordHash) {
		return LoginOutput{}, NewHTTPError(KindUnauthorized, "invalid credentials")
	}

	now := u.clock.Now()
	token, exp, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return LoginOutput{}, WrapHTTPError(KindInternal, err, "internal error")
	}

	return LoginOutput{
		User: *user,
		Token: AccessTokenDTO{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int(exp.Sub(now).Seconds()),
		},
	}, nil
}

// メールチェック（小文字にそろえる）
func normalizeEmail(email string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", false
	}
	return trimmed, true
}
