package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/gate"
	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/validation"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email,
// a wrong password or an inactive account.
var ErrInvalidCredentials = errors.New("invalid_credentials")

// UserService manages staff accounts.
type UserService struct {
	db *gorm.DB
	// onChange is called with the user id after role or active flag changes.
	onChange func(uint)
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// OnChange registers a hook run after an account's authorization data changes.
func (s *UserService) OnChange(fn func(uint)) { s.onChange = fn }

type UserInput struct {
	Email     string
	Password  string
	LastName  string
	FirstName string
	Role      gate.Role
	Active    bool
}

func (in UserInput) validate() error {
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.Required("password", in.Password, v)
	if len(in.Password) > 0 && len(in.Password) < 8 {
		v["password"] = "too_short"
	}
	validation.Required("last_name", in.LastName, v)
	validation.Required("first_name", in.FirstName, v)
	if !in.Role.Valid() {
		v["role"] = "invalid_value"
	}
	return invalid(v)
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		LastName:     strings.TrimSpace(in.LastName),
		FirstName:    strings.TrimSpace(in.FirstName),
		Role:         in.Role,
		Active:       in.Active,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, writeErr(err, "email")
	}
	return &u, nil
}

func (s *UserService) List(ctx context.Context, page Page) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.User
	if err := page.apply(q.Order("last_name asc, first_name asc")).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, lookupErr(err, "user", id)
	}
	return &u, nil
}

// SetActive enables or disables an account. Disabled users can no longer log
// in and their outstanding tokens are rejected.
func (s *UserService) SetActive(ctx context.Context, id uint, active bool) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("active", active).Error; err != nil {
		return nil, err
	}
	u.Active = active
	if s.onChange != nil {
		s.onChange(id)
	}
	return u, nil
}

// SetRole moves an account to another role. Cached authorization data for
// the account is dropped through the change hook.
func (s *UserService) SetRole(ctx context.Context, id uint, role gate.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, invalid(validation.Violations{"role": "invalid_value"})
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("role", role).Error; err != nil {
		return nil, err
	}
	u.Role = role
	if s.onChange != nil {
		s.onChange(id)
	}
	return u, nil
}

// Authenticate checks an email/password pair against an active account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Active || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}
