package identity

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
)

// UserUseCaseInterface is the use case surface the handlers need.
type UserUseCaseInterface interface {
	Authenticate(ctx context.Context, email, password string) (string, *User, error)
	CreateAccount(ctx context.Context, actor *auth.Principal, req CreateUserRequest) (*User, error)
	GetAccount(ctx context.Context, actor auth.Principal, uid string) (*User, error)
	ListAccounts(ctx context.Context) ([]User, error)
	UpdateAccount(ctx context.Context, actor auth.Principal, uid string, req UpdateUserRequest) (*User, error)
	SetRole(ctx context.Context, actor auth.Principal, uid string, isAdmin bool) (*User, error)
	DeleteAccount(ctx context.Context, actor auth.Principal, uid string) error
}

// UserHandler serves account and login endpoints.
type UserHandler struct {
	useCase UserUseCaseInterface
	tracer  trace.Tracer
}

func NewUserHandler(useCase UserUseCaseInterface, tracer trace.Tracer) *UserHandler {
	return &UserHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// Login exchanges credentials for an access token.
func (h *UserHandler) Login(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "login")
	defer span.End()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	token, user, err := h.useCase.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		span.RecordError(err)
		if apperr.KindOf(err) == apperr.KindAuth {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		apperr.Respond(c, err)
		return
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	c.JSON(http.StatusOK, LoginResponse{
		IsAdmin:     user.IsAdmin,
		AccessToken: token,
		Data:        user,
	})
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_user")
	defer span.End()

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	var actor *auth.Principal
	if p, ok := auth.PrincipalFrom(c); ok {
		actor = &p
	}

	user, err := h.useCase.CreateAccount(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{
		"status":  true,
		"message": "User created successfully",
		"data":    user,
	})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.useCase.ListAccounts(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	actor, _ := auth.PrincipalFrom(c)
	user, err := h.useCase.GetAccount(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_user")
	defer span.End()

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	span.SetAttributes(attribute.String("user_id", c.Param("id")))

	user, err := h.useCase.UpdateAccount(ctx, actor, c.Param("id"), req)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetRole(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "set_role")
	defer span.End()

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	span.SetAttributes(
		attribute.String("user_id", c.Param("id")),
		attribute.Bool("is_admin", *req.IsAdmin),
	)

	user, err := h.useCase.SetRole(ctx, actor, c.Param("id"), *req.IsAdmin)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, _ := auth.PrincipalFrom(c)
	if err := h.useCase.DeleteAccount(c.Request.Context(), actor, c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
