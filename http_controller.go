package access

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AccessControllerRoutes holds the auth endpoint paths
type AccessControllerRoutes struct {
	Login    string
	Logout   string
	Register string
}

// AccessController exposes the JSON auth API the SPA front end talks
// to: login, registration, and logout.
type AccessController struct {
	Debug    bool
	Logger   Logger
	Sessions *SessionManager
	Guard    *Guard
	Routes   *AccessControllerRoutes
}

// AccessControllerOption configures the controller
type AccessControllerOption func(*AccessController) *AccessController

// WithControllerSessions sets the session manager
func WithControllerSessions(sessions *SessionManager) AccessControllerOption {
	return func(c *AccessController) *AccessController {
		c.Sessions = sessions
		return c
	}
}

// WithControllerGuard sets the guard used for role home routes
func WithControllerGuard(guard *Guard) AccessControllerOption {
	return func(c *AccessController) *AccessController {
		c.Guard = guard
		return c
	}
}

// WithControllerLogger sets the logger
func WithControllerLogger(logger Logger) AccessControllerOption {
	return func(c *AccessController) *AccessController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// NewAccessController builds the controller with default routes.
func NewAccessController(opts ...AccessControllerOption) *AccessController {
	c := &AccessController{
		Logger: defLogger{},
		Routes: &AccessControllerRoutes{
			Login:    "/api/auth/login",
			Logout:   "/api/auth/logout",
			Register: "/api/auth/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in access controller...")
	}

	if c.Guard == nil {
		panic("Missing Guard in access controller...")
	}

	return c
}

// RegisterAccessRoutes mounts the auth endpoints on the router.
func RegisterAccessRoutes[T any](app router.Router[T], opts ...AccessControllerOption) {
	controller := NewAccessController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).SetName("auth.login")
	app.Post(controller.Routes.Register, controller.RegisterPost).SetName("auth.register")
	app.Post(controller.Routes.Logout, controller.LogoutPost).SetName("auth.logout")
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginPost authenticates a pair and returns the session payload the
// front end persists: the bearer credential, the actor, and the home
// route to navigate to.
func (a *AccessController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"message": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message":    "invalid login payload",
			"validation": err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= ACCESS LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===========================")
	}

	actor, err := a.Sessions.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		if IsInvalidCredentials(err) {
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"message": ErrInvalidCredentials.Message,
			})
		}

		a.Logger.Error("login failed", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"message": "login failed",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": a.Sessions.Credential(),
		"user":  actor,
		"home":  a.Guard.Routes().RoleHome(actor.Role),
	})
}

// RegisterPost creates a professional identity with its trial
// subscription and opens the session.
func (a *AccessController) RegisterPost(ctx router.Context) error {
	profile := new(RegisterProfile)

	if err := ctx.Bind(profile); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"message": "failed to parse request body",
		})
	}

	actor, err := a.Sessions.Register(ctx.Context(), *profile)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			switch richErr.Category {
			case errors.CategoryValidation:
				return ctx.JSON(router.StatusBadRequest, map[string]any{
					"message":    ErrValidation.Message,
					"validation": richErr.Message,
				})
			case errors.CategoryConflict:
				return ctx.JSON(http.StatusConflict, map[string]string{
					"message": ErrDuplicateEmail.Message,
				})
			}
		}

		a.Logger.Error("registration failed", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"message": "registration failed",
		})
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"token": a.Sessions.Credential(),
		"user":  actor,
		"home":  a.Guard.Routes().RoleHome(actor.Role),
	})
}

// LogoutPost clears the session. Local state is gone even when remote
// invalidation fails, so this endpoint always reports success.
func (a *AccessController) LogoutPost(ctx router.Context) error {
	a.Sessions.Logout(ctx.Context())

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "logged out",
	})
}
