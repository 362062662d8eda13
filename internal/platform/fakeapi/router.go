package fakeapi

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	authhttp "github.com/Apurer/admin-dashboard/internal/domains/auth/adapters/http"
	authdomain "github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	userhttp "github.com/Apurer/admin-dashboard/internal/domains/users/adapters/http"
	userdomain "github.com/Apurer/admin-dashboard/internal/domains/users/domain"
	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
)

const identityKey = "fakeapi.identity"

type routerSettings struct {
	serviceName    string
	tracerProvider trace.TracerProvider
}

// RouterOption tunes NewRouter.
type RouterOption func(*routerSettings)

// WithTracerProvider traces every request through otelgin.
func WithTracerProvider(tp trace.TracerProvider) RouterOption {
	return func(s *routerSettings) { s.tracerProvider = tp }
}

// WithServiceName names the server in request spans.
func WithServiceName(name string) RouterOption {
	return func(s *routerSettings) { s.serviceName = name }
}

// API serves a Backend over HTTP.
type API struct {
	backend   *Backend
	responder *apperrors.Responder
}

// NewRouter builds the gin engine with every dashboard endpoint mounted.
func NewRouter(backend *Backend, opts ...RouterOption) *gin.Engine {
	settings := routerSettings{serviceName: "dashboard-fakeapi"}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}
	gin.SetMode(gin.TestMode)
	api := &API{
		backend:   backend,
		responder: apperrors.NewResponder("", mapBackendError),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	otelOpts := []otelgin.Option{}
	if settings.tracerProvider != nil {
		otelOpts = append(otelOpts, otelgin.WithTracerProvider(settings.tracerProvider))
	}
	router.Use(otelgin.Middleware(settings.serviceName, otelOpts...))

	router.GET(authhttp.PathSession, api.requireIdentity, api.Session)
	router.POST(authhttp.PathLogin, api.Login)
	router.POST(authhttp.PathLogout, api.Logout)
	router.POST(authhttp.PathRegister, api.Register)
	router.POST(authhttp.PathForgotPassword, api.ForgotPassword)
	router.POST(authhttp.PathResetPassword, api.ResetPassword)
	router.POST(authhttp.PathVerifyEmail, api.VerifyEmail)

	users := router.Group(userhttp.PathUsers, api.requireIdentity)
	users.GET("", api.ListUsers)
	users.POST("", api.CreateUser)
	users.GET("/export", api.ExportUsers)
	users.GET("/stats", api.UserStats)
	users.POST("/bulk-delete", api.BulkDeleteUsers)
	users.GET("/:id", api.GetUser)
	users.PUT("/:id", api.UpdateUser)
	users.DELETE("/:id", api.DeleteUser)
	users.PATCH("/:id/status", api.SetUserStatus)
	users.POST("/:id/avatar", api.UploadAvatar)
	users.GET("/:id/avatar", api.GetAvatar)

	router.NoRoute(func(c *gin.Context) {
		api.responder.Respond(c, apperrors.ErrNotFound.WithDetail("no route for "+c.Request.Method+" "+c.Request.URL.Path))
	})
	return router
}

func mapBackendError(err error) (apperrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return apperrors.ErrNotFound.WithDetail("User not found"), true
	case errors.Is(err, ErrEmailTaken):
		return apperrors.ErrConflict.WithDetail("Email is already registered"), true
	case errors.Is(err, ErrInvalidToken):
		return apperrors.ErrUnauthorized.WithDetail("Session expired, please sign in again"), true
	}
	return apperrors.ProblemDetail{}, false
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (api *API) requireIdentity(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		api.responder.Unauthorized(c, "Authentication required")
		return
	}
	identity, err := api.backend.Authenticate(c.Request.Context(), token)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

// Session answers the who-am-I call.
func (api *API) Session(c *gin.Context) {
	identity, _ := c.Get(identityKey)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": identity}})
}

// Login exchanges credentials for a token. Bad credentials answer 200 with
// success false, the way the dashboard backend does.
func (api *API) Login(c *gin.Context) {
	var creds authdomain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	token, err := api.backend.Login(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "message": "Signed in"})
}

// Logout revokes the presented token, if any.
func (api *API) Logout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		api.backend.Revoke(c.Request.Context(), token)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Register creates an account and signs it in.
func (api *API) Register(c *gin.Context) {
	var form authdomain.SignUpForm
	if err := c.ShouldBindJSON(&form); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	if err := form.Validate(); err != nil {
		api.respondInvalid(c, err)
		return
	}
	token, err := api.backend.Register(c.Request.Context(), form)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "message": "Account created"})
}

// ForgotPassword mails a reset link. The answer is the same whether or not
// the address is registered.
func (api *API) ForgotPassword(c *gin.Context) {
	var form authdomain.PasswordRecovery
	if err := c.ShouldBindJSON(&form); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	if err := form.Validate(); err != nil {
		api.respondInvalid(c, err)
		return
	}
	api.backend.RequestPasswordReset(c.Request.Context(), form.Email)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "If the address is registered, a reset link is on its way"})
}

// ResetPassword sets a new password. A bad link answers 200 with success
// false, like a failed sign-in.
func (api *API) ResetPassword(c *gin.Context) {
	var form authdomain.PasswordReset
	if err := c.ShouldBindJSON(&form); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	if err := form.Validate(); err != nil {
		api.respondInvalid(c, err)
		return
	}
	if err := api.backend.ResetPassword(c.Request.Context(), form.Token, form.Password); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Reset link is invalid or has expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}

// VerifyEmail confirms an address.
func (api *API) VerifyEmail(c *gin.Context) {
	var form authdomain.EmailVerification
	if err := c.ShouldBindJSON(&form); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	if err := form.Validate(); err != nil {
		api.respondInvalid(c, err)
		return
	}
	if err := api.backend.VerifyEmail(c.Request.Context(), form.Token); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Verification link is invalid or has expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email verified"})
}

func (api *API) respondInvalid(c *gin.Context, err error) {
	fields := apperrors.ValidationFields(err)
	if len(fields) == 0 {
		api.responder.BadRequest(c, err.Error())
		return
	}
	api.responder.ValidationFailed(c, fields)
}

func parseFilters(c *gin.Context) (userdomain.Filters, error) {
	filters := userdomain.DefaultFilters()
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filters, errors.New("page must be an integer")
		}
		filters.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filters, errors.New("limit must be an integer")
		}
		filters.Limit = limit
	}
	filters.Search = c.Query("search")
	if raw := c.Query("sort"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filters.Sort); err != nil {
			return filters, errors.New("sort must be a JSON object")
		}
	}
	return filters.Normalize(), nil
}

// ListUsers answers with the canonical list envelope.
func (api *API) ListUsers(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	page := api.backend.ListUsers(c.Request.Context(), filters)
	var env userhttp.ListEnvelope
	env.List = page.List
	env.Pagination.TotalCount = page.Total
	c.JSON(http.StatusOK, env)
}

// ExportUsers streams every matching user as CSV.
func (api *API) ExportUsers(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	filters.Page, filters.Limit = 1, 1<<30
	page := api.backend.ListUsers(c.Request.Context(), filters)

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="users.csv"`)
	c.Status(http.StatusOK)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "name", "email", "phone", "role", "status"})
	for _, u := range page.List {
		_ = w.Write([]string{string(u.ID), u.Name, u.Email, u.Phone, u.Role, u.Status})
	}
	w.Flush()
}

func (api *API) userID(c *gin.Context) (userdomain.ID, bool) {
	id, err := userdomain.ParseID(c.Param("id"))
	if err != nil {
		api.responder.BadRequest(c, err.Error())
		return "", false
	}
	return id, true
}

// GetUser answers with a single user.
func (api *API) GetUser(c *gin.Context) {
	id, ok := api.userID(c)
	if !ok {
		return
	}
	user, err := api.backend.GetUser(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (api *API) bindInput(c *gin.Context) (userdomain.Input, bool) {
	var in userdomain.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		api.responder.BadRequest(c, err.Error())
		return in, false
	}
	if err := in.Validate(); err != nil {
		api.respondInvalid(c, err)
		return in, false
	}
	return in, true
}

// CreateUser stores a new user.
func (api *API) CreateUser(c *gin.Context) {
	in, ok := api.bindInput(c)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, api.backend.CreateUser(c.Request.Context(), in))
}

// UpdateUser replaces the editable fields of a user.
func (api *API) UpdateUser(c *gin.Context) {
	id, ok := api.userID(c)
	if !ok {
		return
	}
	in, ok := api.bindInput(c)
	if !ok {
		return
	}
	user, err := api.backend.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetUserStatus changes the account status of a user.
func (api *API) SetUserStatus(c *gin.Context) {
	id, ok := api.userID(c)
	if !ok {
		return
	}
	var change userdomain.StatusChange
	if err := c.ShouldBindJSON(&change); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	if err := change.Validate(); err != nil {
		api.respondInvalid(c, err)
		return
	}
	user, err := api.backend.SetUserStatus(c.Request.Context(), id, strings.TrimSpace(change.Status))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UserStats counts the users matching the search query.
func (api *API) UserStats(c *gin.Context) {
	c.JSON(http.StatusOK, api.backend.UserStats(c.Request.Context(), c.Query("search")))
}

// DeleteUser removes one user.
func (api *API) DeleteUser(c *gin.Context) {
	id, ok := api.userID(c)
	if !ok {
		return
	}
	if api.backend.DeleteUsers(c.Request.Context(), id) == 0 {
		api.responder.RespondError(c, ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// BulkDeleteUsers removes every listed user that exists.
func (api *API) BulkDeleteUsers(c *gin.Context) {
	var payload struct {
		IDs []userdomain.ID `json:"ids"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	if len(payload.IDs) == 0 {
		api.responder.ValidationFailed(c, map[string]string{"ids": "At least one id is required"})
		return
	}
	deleted := api.backend.DeleteUsers(c.Request.Context(), payload.IDs...)
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}

// UploadAvatar stores the multipart "avatar" file of a user.
func (api *API) UploadAvatar(c *gin.Context) {
	id, ok := api.userID(c)
	if !ok {
		return
	}
	header, err := c.FormFile("avatar")
	if err != nil {
		api.responder.ValidationFailed(c, map[string]string{"avatar": "Avatar file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	user, err := api.backend.SetAvatar(c.Request.Context(), id, data)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetAvatar serves the stored avatar bytes.
func (api *API) GetAvatar(c *gin.Context) {
	id, ok := api.userID(c)
	if !ok {
		return
	}
	data, found := api.backend.Avatar(c.Request.Context(), id)
	if !found {
		api.responder.NotFound(c, "avatar", id)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}
