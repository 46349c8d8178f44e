package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"abetcrm/internal/apperr"
	"abetcrm/internal/audit"
	"abetcrm/internal/authz"
	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.User, TokenPair, error)
	Logout(ctx context.Context, userID string) error

	GetUser(ctx context.Context, p authz.Principal, id string) (*models.User, error)
	ListUsers(ctx context.Context, q models.ListQuery) (models.Page[models.User], error)
	UpdateUser(ctx context.Context, p authz.Principal, id string, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, p authz.Principal, id string) error
}

type userService struct {
	db           *sql.DB
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
	validator    *customfields.Validator
	recorder     *audit.Recorder
	now          func() time.Time
}

func NewUserService(db *sql.DB, emailService EmailService, authService AuthService, v *customfields.Validator, rec *audit.Recorder) UserService {
	return &userService{
		db:           db,
		repo:         repositories.NewUserRepository(db),
		emailService: emailService,
		authService:  authService,
		validator:    v,
		recorder:     rec,
		now:          time.Now,
	}
}

func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	return s.create(ctx, req, authz.RoleUser, nil)
}

func (s *userService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = authz.RoleUser
	}
	if !authz.ValidRole(role) {
		return nil, apperr.Invalid(fmt.Sprintf("invalid role %q", role))
	}
	return s.create(ctx, req.RegisterRequest, role, req.CustomFields)
}

func (s *userService) create(ctx context.Context, req models.RegisterRequest, role string, custom customfields.Values) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperr.Invalid("email is required")
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("User with this email already exists")
	}
	hash, err := s.authService.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	normalized, err := s.validator.Validate(ctx, string(audit.EntityUser), custom.Raw())
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		normalized = customfields.Values{}
	}

	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		IsActive:     true,
		CustomFields: normalized,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		_, err := s.recorder.Record(ctx, tx, audit.ActionCreate, audit.EntityUser, u.ID, nil, u)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(u.Email, u.FirstName); err != nil {
			// warn but do not fail creation
			log.Printf("[user][create] warning: failed to send welcome email to %s: %v", u.Email, err)
		}
	}
	return u, nil
}

func (s *userService) Login(ctx context.Context, req models.LoginRequest) (*models.User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if user == nil || !s.authService.CheckPassword(user.PasswordHash, strings.TrimSpace(req.Password)) {
		log.Printf("[auth][login] rejected email=%q", email)
		return nil, TokenPair{}, apperr.Unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, TokenPair{}, apperr.Unauthorized("Account is disabled")
	}

	tokens, err := s.authService.IssueTokens(user)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.repo.UpdateRefresh(ctx, user.ID, tokens.RefreshToken, tokens.RefreshExpiresAt); err != nil {
		return nil, TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	actor := audit.ActorFrom(ctx)
	actor.UserID = user.ID
	if _, err := s.recorder.Record(audit.WithActor(ctx, actor), s.db, audit.ActionLogin, audit.EntityUser, user.ID, nil, nil); err != nil {
		log.Printf("[auth][login] audit failed for userID=%s: %v", user.ID, err)
	}
	log.Printf("[auth][login] success userID=%s role=%s", user.ID, user.Role)
	return user, tokens, nil
}

// Refresh rotates the refresh token; the old one stops working.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*models.User, TokenPair, error) {
	old := strings.TrimSpace(refreshToken)
	if old == "" {
		return nil, TokenPair{}, apperr.Unauthorized("Invalid refresh token")
	}
	current, err := s.repo.GetByRefreshToken(ctx, old)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if current == nil || !current.IsActive {
		return nil, TokenPair{}, apperr.Unauthorized("Invalid refresh token")
	}
	tokens, err := s.authService.IssueTokens(current)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	rotated, err := s.repo.RotateRefresh(ctx, old, tokens.RefreshToken, tokens.RefreshExpiresAt)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if rotated == nil {
		return nil, TokenPair{}, apperr.Unauthorized("Refresh token expired")
	}
	return rotated, tokens, nil
}

func (s *userService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.ClearRefresh(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	if _, err := s.recorder.Record(ctx, s.db, audit.ActionLogout, audit.EntityUser, userID, nil, nil); err != nil {
		log.Printf("[auth][logout] audit failed for userID=%s: %v", userID, err)
	}
	return nil
}

func (s *userService) GetUser(ctx context.Context, p authz.Principal, id string) (*models.User, error) {
	if id != p.UserID && !p.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

func (s *userService) ListUsers(ctx context.Context, q models.ListQuery) (models.Page[models.User], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > models.MaxLimit {
		q.Limit = models.DefaultLimit
	}
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(items, total, q), nil
}

// UpdateUser: users edit their own profile; role and activation are
// admin-only.
func (s *userService) UpdateUser(ctx context.Context, p authz.Principal, id string, patch models.UserPatch) (*models.User, error) {
	current, err := s.GetUser(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && (patch.Role != nil || patch.IsActive != nil) {
		return nil, apperr.Forbidden("Only admin can change role or status")
	}
	if patch.Role != nil && !authz.ValidRole(*patch.Role) {
		return nil, apperr.Invalid(fmt.Sprintf("invalid role %q", *patch.Role))
	}
	if patch.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*patch.Email))
		if e == "" {
			return nil, apperr.Invalid("email cannot be empty")
		}
		patch.Email = &e
	}

	changes := patch.Changes()
	var custom customfields.Values
	if len(patch.CustomFields) > 0 {
		if custom, err = s.validator.ValidatePatch(ctx, string(audit.EntityUser), current.CustomFields.Raw(), patch.CustomFields.Raw()); err != nil {
			return nil, err
		}
	}
	var hash string
	if patch.Password != nil {
		if hash, err = s.authService.HashPassword(*patch.Password); err != nil {
			return nil, apperr.Invalid(err.Error())
		}
	}
	if len(changes) == 0 && len(custom) == 0 && hash == "" {
		return nil, apperr.Invalid("no fields to update")
	}

	now := s.now().UTC()
	updated := current
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		if hash != "" {
			if err := repo.UpdatePassword(ctx, id, hash, now); err != nil {
				return err
			}
		}
		if len(changes) > 0 || len(custom) > 0 {
			u, err := repo.Update(ctx, id, changes, custom, now)
			if err != nil {
				return err
			}
			if u == nil {
				return apperr.NotFound("User not found")
			}
			updated = u
		}
		_, err := s.recorder.Record(ctx, tx, audit.ActionUpdate, audit.EntityUser, id, current, updated)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, p authz.Principal, id string) error {
	if !p.IsAdmin() {
		return apperr.ErrForbidden
	}
	if id == p.UserID {
		return apperr.Invalid("cannot delete your own account")
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.NotFound("User not found")
	}
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.Delete(ctx, id, s.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("User not found")
		}
		if err := repo.ClearRefresh(ctx, id); err != nil {
			return err
		}
		_, err = s.recorder.Record(ctx, tx, audit.ActionDelete, audit.EntityUser, id, current, nil)
		return err
	})
}
