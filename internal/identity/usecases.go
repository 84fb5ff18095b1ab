package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
)

// TokenIssuer signs access tokens for a user uid.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// UserUseCase holds the account and authentication rules.
type UserUseCase struct {
	repository Repository
	issuer     TokenIssuer
	bcryptCost int
}

func NewUserUseCase(repository Repository, issuer TokenIssuer, bcryptCost int) *UserUseCase {
	return &UserUseCase{
		repository: repository,
		issuer:     issuer,
		bcryptCost: bcryptCost,
	}
}

// Authenticate verifies the credentials and issues a token for the account.
// Unknown emails and wrong passwords fail the same way.
func (uc *UserUseCase) Authenticate(ctx context.Context, email, password string) (string, *User, error) {
	user, err := uc.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := uc.issuer.Issue(user.ID)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}

	log.Printf("🔑 [LOGIN] UserID: %s", user.ID)
	return token, user, nil
}

// CreateAccount registers a user. Only an admin actor may create another
// admin; actor is nil for anonymous signup.
func (uc *UserUseCase) CreateAccount(ctx context.Context, actor *auth.Principal, req CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	isAdmin := req.IsAdmin != nil && *req.IsAdmin
	if isAdmin && (actor == nil || !actor.IsAdmin) {
		return nil, ErrRoleChange
	}

	hash, err := uc.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := NewUser(strings.TrimSpace(req.Name), req.Email, req.Phone, hash, isAdmin)
	if err := uc.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ [CREATE USER] UserID: %s", user.ID)
	return user, nil
}

func (uc *UserUseCase) GetAccount(ctx context.Context, actor auth.Principal, uid string) (*User, error) {
	if !actor.CanAccess(uid) {
		return nil, apperr.ErrForbidden
	}
	return uc.repository.GetUser(ctx, uid)
}

func (uc *UserUseCase) ListAccounts(ctx context.Context) ([]User, error) {
	return uc.repository.ListUsers(ctx)
}

// UpdateAccount applies a partial profile. Users may edit themselves; a role
// change goes through SetRole rules.
func (uc *UserUseCase) UpdateAccount(ctx context.Context, actor auth.Principal, uid string, req UpdateUserRequest) (*User, error) {
	if !actor.CanAccess(uid) {
		return nil, apperr.ErrForbidden
	}

	user, err := uc.repository.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	if req.IsAdmin != nil && *req.IsAdmin != user.IsAdmin {
		if !actor.IsAdmin {
			return nil, ErrRoleChange
		}
		user.IsAdmin = *req.IsAdmin
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.MissingFields("name")
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		if strings.TrimSpace(*req.Email) == "" {
			return nil, apperr.MissingFields("email")
		}
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		if strings.TrimSpace(*req.Phone) == "" {
			return nil, apperr.MissingFields("phone")
		}
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, apperr.MissingFields("password")
		}
		hash, err := uc.hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = time.Now().UTC()
	if err := uc.repository.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole grants or revokes the admin flag. Only admins may call it.
func (uc *UserUseCase) SetRole(ctx context.Context, actor auth.Principal, uid string, isAdmin bool) (*User, error) {
	if !actor.IsAdmin {
		return nil, ErrRoleChange
	}

	user, err := uc.repository.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin == isAdmin {
		return user, nil
	}

	user.IsAdmin = isAdmin
	user.UpdatedAt = time.Now().UTC()
	if err := uc.repository.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("🛡️ [SET ROLE] UserID: %s | IsAdmin: %t | By: %s", uid, isAdmin, actor.UserID)
	return user, nil
}

// DeleteAccount hard deletes a user. Users with orders are kept.
func (uc *UserUseCase) DeleteAccount(ctx context.Context, actor auth.Principal, uid string) error {
	if !actor.IsAdmin {
		return apperr.ErrForbidden
	}
	if err := uc.repository.DeleteUser(ctx, uid); err != nil {
		return err
	}

	log.Printf("🗑️ [DELETE USER] UserID: %s", uid)
	return nil
}

// LoadPrincipal implements auth.PrincipalLoader.
func (uc *UserUseCase) LoadPrincipal(ctx context.Context, uid string) (auth.Principal, error) {
	user, err := uc.repository.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return auth.Principal{}, auth.ErrUnknownPrincipal
		}
		return auth.Principal{}, err
	}
	return auth.Principal{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

func (uc *UserUseCase) hash(password string) (string, error) {
	hash, err := auth.HashPassword(password, uc.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", apperr.Internal(fmt.Errorf("hashing password: %w", err))
	}
	return hash, nil
}
