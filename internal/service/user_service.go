package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"opsportal/internal/apperror"
	"opsportal/internal/auth"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/session"
	"opsportal/pkg/timefmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"omitempty,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role" binding:"required"`
	Department   string `json:"department"`
	CostCenterID string `json:"cost_center_id"`
}

// UpdateUserRequest - nil fields are left unchanged; an empty cost_center_id unassigns
type UpdateUserRequest struct {
	Email        *string `json:"email" binding:"omitempty,email"`
	Password     *string `json:"password" binding:"omitempty,min=6"`
	Role         *string `json:"role"`
	Department   *string `json:"department"`
	CostCenterID *string `json:"cost_center_id"`
}

type LoginUserRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID         uuid.UUID      `json:"id"`
	Username   string         `json:"username"`
	Email      string         `json:"email"`
	Role       string         `json:"role"`
	Department string         `json:"department"`
	CostCenter *CostCenterRef `json:"cost_center"`
	CreatedAt  string         `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error)
}

type userService struct {
	repo           repository.UserRepository
	costCenterRepo repository.CostCenterRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	tokens         *auth.TokenManager
	sessions       session.Store
	logger         *zap.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	costCenterRepo repository.CostCenterRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	tokens *auth.TokenManager,
	sessions session.Store,
	logger *zap.Logger,
) UserService {
	return &userService{
		repo:           repo,
		costCenterRepo: costCenterRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		tokens:         tokens,
		sessions:       sessions,
		logger:         logger,
	}
}

const invalidRoleMsg = "invalid role: must be one of superAdmin, director, deputyDirector, headOfAccounting, headOfPurchasing, captainOfPurchasing, inspector, staff"

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
		CreatedAt:  timefmt.Format(user.CreatedAt),
	}
	if user.CostCenter != nil {
		resp.CostCenter = &CostCenterRef{ID: user.CostCenter.ID.String(), Name: user.CostCenter.Name}
	} else if user.CostCenterID != nil {
		resp.CostCenter = &CostCenterRef{ID: user.CostCenterID.String()}
	}
	return resp
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, apperror.Validation(invalidRoleMsg)
	}

	username := strings.TrimSpace(req.Username)
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict("username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	costCenterID, err := s.resolveCostCenter(ctx, req.CostCenterID)
	if err != nil {
		return nil, err
	}

	// Hash password automatically
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(errors.New("failed to hash password"))
	}

	user := &model.User{
		Username:     username,
		Email:        req.Email,
		Password:     string(hashedPassword),
		Role:         req.Role,
		Department:   req.Department,
		CostCenterID: costCenterID,
	}

	actor, _ := uuid.Parse(actorID)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     nilIfZero(actor),
			Action:     model.ActionCreateUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
			Details:    auditDetails(map[string]interface{}{"role": user.Role, "department": user.Department}),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("username already exists")
		}
		return nil, apperror.Internal(err)
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, apperror.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	token, claims, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Internal(errors.New("failed to generate token"))
	}

	s.logger.Info("User logged in", zap.String("username", user.Username), zap.String("role", user.Role))

	return &TokenResponse{
		Token:     token,
		ExpiresAt: timefmt.Format(claims.ExpiresAt.Time),
		User:      *mapToResponse(user),
	}, nil
}

// Logout revokes the token's jti for the rest of its lifetime
func (s *userService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := parseID(id, "user id")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error) {
	userID, err := parseID(id, "user id")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}

	changed := []string{}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return nil, apperror.Validation(invalidRoleMsg)
		}
		user.Role = *req.Role
		changed = append(changed, "role")
	}
	if req.Email != nil {
		user.Email = *req.Email
		changed = append(changed, "email")
	}
	if req.Department != nil {
		user.Department = *req.Department
		changed = append(changed, "department")
	}
	if req.CostCenterID != nil {
		ccID, err := s.resolveCostCenter(ctx, *req.CostCenterID)
		if err != nil {
			return nil, err
		}
		user.CostCenterID = ccID
		user.CostCenter = nil
		changed = append(changed, "cost_center_id")
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.Internal(errors.New("failed to hash password"))
		}
		user.Password = string(hashed)
		changed = append(changed, "password")
	}

	actor, _ := uuid.Parse(actorID)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     nilIfZero(actor),
			Action:     model.ActionUpdateUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
			Details:    auditDetails(map[string]interface{}{"fields": changed}),
		})
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	updated, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, lookupError(err, "user not found")
	}
	return mapToResponse(updated), nil
}

// resolveCostCenter checks that raw names an existing cost center; empty means none
func (s *userService) resolveCostCenter(ctx context.Context, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw, "cost center id")
	if err != nil {
		return nil, err
	}
	if _, err := s.costCenterRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("cost center does not exist")
		}
		return nil, apperror.Internal(err)
	}
	return &id, nil
}
