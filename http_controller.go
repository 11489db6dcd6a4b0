package users

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// HTTPAuthenticator is the slice of the route authenticator the controller needs
type HTTPAuthenticator interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	MakeAPIAuthErrorHandler() func(router.Context, error) error
}

func RegisterAPIRoutes[T any](app router.Router[T], opts ...APIControllerOption) {

	controller := NewAPIController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeAPIAuthErrorHandler(),
	)

	app.
		Get(controller.Routes.Users, controller.UsersList).
		SetName("users.list")

	app.
		Post(controller.Routes.Users, controller.UsersCreate).
		SetName("users.create")

	app.
		Get(controller.Routes.UserDetail, controller.UsersShow).
		SetName("users.show")

	app.Post(controller.Routes.Register, controller.Register).
		SetName("auth.register")
	app.Post(controller.Routes.Login, controller.Login).
		SetName("auth.login")

	app.Get(controller.Routes.Logout, controller.Logout, protected).
		SetName("auth.logout")
	app.Get(controller.Routes.Status, controller.Status, protected).
		SetName("auth.status")
}

type APIControllerRoutes struct {
	Users      string
	UserDetail string
	Register   string
	Login      string
	Logout     string
	Status     string
}

type APIController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auth   Authenticator
	Auther HTTPAuthenticator
	Config Config
	Routes *APIControllerRoutes
}

type APIControllerOption func(*APIController) *APIController

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
		Routes: &APIControllerRoutes{
			Users:      "/users",
			UserDetail: "/users/:user_id",
			Register:   "/auth/register",
			Login:      "/auth/login",
			Logout:     "/auth/logout",
			Status:     "/auth/status",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in users controller...")
	}

	if c.Auth == nil {
		panic("Missing Authenticator in users controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in users controller...")
	}

	if c.Config == nil {
		panic("Missing Config in users controller...")
	}

	return c
}

func (a *APIController) WithLogger(logger Logger) *APIController {
	a.Logger = logger
	return a
}

// UsersList returns every registered user, newest first
func (a *APIController) UsersList(ctx router.Context) error {
	records, err := a.Repo.Users().List(ctx.Context())
	if err != nil {
		a.Logger.Error("users list error", "error", err)
		return a.serverError(ctx)
	}

	list := make([]PublicUser, 0, len(records))
	for _, record := range records {
		list = append(list, record.Public())
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"data": map[string]any{
			"users": list,
		},
	})
}

// CreateUserRequest payload
type CreateUserRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// UsersCreate registers a new account and answers with a plain confirmation
func (a *APIController) UsersCreate(ctx router.Context) error {
	payload := new(CreateUserRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("users create parse payload", "error", err)
		return a.invalidPayload(ctx)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("users create validate payload", "error", err)
		return a.invalidPayload(ctx)
	}

	if a.Debug {
		fmt.Println("======= USERS CREATE ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===========================")
	}

	if _, err := a.registerUser(ctx, payload); err != nil {
		return a.registrationError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"message": "Successfully registered.",
	})
}

// Register creates the account and answers with a freshly minted bearer token
func (a *APIController) Register(ctx router.Context) error {
	payload := new(CreateUserRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return a.invalidPayload(ctx)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload", "error", err)
		return a.invalidPayload(ctx)
	}

	user, err := a.registerUser(ctx, payload)
	if err != nil {
		return a.registrationError(ctx, err)
	}

	token, err := a.Auth.Login(ctx.Context(), user.Email, payload.Password)
	if err != nil {
		a.Logger.Error("register token error", "error", err)
		return a.serverError(ctx)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"auth_token": token,
	})
}

// UsersShow returns the public details of a single user
func (a *APIController) UsersShow(ctx router.Context) error {
	id, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)
	if err != nil {
		return a.userNotFound(ctx)
	}

	record, err := a.Repo.Users().GetByID(ctx.Context(), id)
	if err != nil {
		if errors.IsNotFound(err) {
			return a.userNotFound(ctx)
		}
		a.Logger.Error("users show error", "error", err, "id", id)
		return a.serverError(ctx)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"data": record.Public(),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// Login verifies credentials and mints a bearer token. Unknown emails and
// wrong passwords share one rejection so callers cannot probe for accounts.
func (a *APIController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.invalidPayload(ctx)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return a.invalidPayload(ctx)
	}

	if a.Debug {
		fmt.Println("======= USERS LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload.Email))
		fmt.Println("==========================")
	}

	token, err := a.Auth.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) &&
			(richErr.Category == errors.CategoryNotFound || richErr.Category == errors.CategoryAuth) {
			return a.userNotFound(ctx)
		}

		a.Logger.Error("login error", "error", err)
		return a.serverError(ctx)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status":     "success",
		"auth_token": token,
	})
}

// Logout acknowledges the logout. Tokens are not revocable; clients discard
// them and the middleware has already vouched for this one.
func (a *APIController) Logout(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Successfully logged out.",
	})
}

// Status returns the profile of the account behind the bearer token
func (a *APIController) Status(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		// the middleware also propagates claims through the standard context
		claims, ok = GetClaims(ctx.Context())
	}
	if !ok {
		return a.Auther.MakeAPIAuthErrorHandler()(ctx, ErrUnableToMapClaims)
	}

	record, err := a.Repo.Users().GetByEmail(ctx.Context(), claims.Email())
	if err != nil {
		if errors.IsNotFound(err) {
			return a.Auther.MakeAPIAuthErrorHandler()(ctx, ErrIdentityNotFound)
		}
		a.Logger.Error("status lookup error", "error", err)
		return a.serverError(ctx)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"data": record.Profile(),
	})
}

func (a *APIController) registerUser(ctx router.Context, payload *CreateUserRequest) (*User, error) {
	registerUser := NewRegisterUserHandler(a.Repo)
	return registerUser.Execute(ctx.Context(), RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
}

func (a *APIController) registrationError(ctx router.Context, err error) error {
	if IsDuplicateUserError(err) {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message": "Sorry, that user already exists",
		})
	}

	a.Logger.Error("user registration error", "error", err)

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category == errors.CategoryValidation {
		return a.invalidPayload(ctx)
	}

	return a.serverError(ctx)
}

func (a *APIController) invalidPayload(ctx router.Context) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"message": "Invalid payload",
	})
}

func (a *APIController) userNotFound(ctx router.Context) error {
	return ctx.JSON(router.StatusNotFound, map[string]any{
		"message": "User does not exist",
	})
}

func (a *APIController) serverError(ctx router.Context) error {
	return ctx.JSON(router.StatusInternalServerError, map[string]any{
		"status":  "error",
		"message": "Try again.",
	})
}
