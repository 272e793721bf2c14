package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/auth/uc"
	"github.com/lendflow/lendflow/engine/auth/userctx"
	"github.com/lendflow/lendflow/engine/core"
	monitoringmetrics "github.com/lendflow/lendflow/engine/infra/monitoring/metrics"
	"github.com/lendflow/lendflow/engine/infra/server/router"
	"github.com/lendflow/lendflow/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeyOrgID    = "org_id"
	ContextKeyUserRole = "user_role"

	defaultOrgCacheTTL  = 30 * time.Second
	orgCacheSize        = 1024
	credentialsAPIKey   = "api_key"
	credentialsJWT      = "jwt"
	errNoAuthorization  = "no authorization header"
	errInvalidAuthz     = "invalid format"
	errEmptyBearerToken = "empty token"
)

// Manager handles authentication middleware
type Manager struct {
	factory  *uc.Factory
	orgs     *expirable.LRU[core.ID, *model.Organization]
	attempts metric.Int64Counter
}

// NewManager creates a new auth middleware manager. Organization status is
// cached in process for cacheTTL so suspensions apply within that window.
func NewManager(factory *uc.Factory, cacheTTL time.Duration) *Manager {
	if cacheTTL <= 0 {
		cacheTTL = defaultOrgCacheTTL
	}
	return &Manager{
		factory: factory,
		orgs:    expirable.NewLRU[core.ID, *model.Organization](orgCacheSize, nil, cacheTTL),
	}
}

// WithMetrics adds metrics instrumentation to the manager
func (m *Manager) WithMetrics(ctx context.Context, meter metric.Meter) *Manager {
	if meter == nil {
		return m
	}
	counter, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("auth", "attempts_total"),
		metric.WithDescription("Authentication attempts by credential type and outcome"),
	)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to initialize auth metrics", "error", err)
		return m
	}
	m.attempts = counter
	return m
}

// Middleware resolves the bearer credential to a user. Requests without an
// Authorization header pass through; RequireAuth blocks them where needed.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		token, err := extractBearerToken(c)
		if err != nil {
			var authErr *authError
			if errors.As(err, &authErr) && authErr.message == errNoAuthorization {
				c.Next()
				return
			}
			log.Debug("Authentication failed", "reason", err.Error())
			m.recordAttempt(ctx, "unknown", "fail")
			handleAuthError(c, err)
			return
		}
		kind := credentialsJWT
		if strings.HasPrefix(token, m.factory.KeyPrefix()) {
			kind = credentialsAPIKey
		}
		user, err := m.authenticate(ctx, kind, token)
		if err != nil {
			log.Debug("Credential validation failed", "credentials", kind, "error", err)
			m.recordAttempt(ctx, kind, "fail")
			handleAuthError(c, err)
			return
		}
		if err := m.checkAccount(ctx, user); err != nil {
			log.Info("Rejected inactive account", "user_id", user.ID, "org_id", user.OrgID, "error", err)
			m.recordAttempt(ctx, kind, "forbidden")
			handleAuthError(c, err)
			return
		}
		m.recordAttempt(ctx, kind, "success")
		setAuthContext(c, user)
		c.Next()
	}
}

func (m *Manager) authenticate(ctx context.Context, kind, token string) (*model.User, error) {
	if kind == credentialsAPIKey {
		return m.factory.ValidateAPIKey(token).Execute(ctx)
	}
	return m.factory.AuthenticateToken(token).Execute(ctx)
}

func (m *Manager) checkAccount(ctx context.Context, user *model.User) error {
	if !user.IsActive() {
		return uc.ErrUserDisabled
	}
	org, err := m.organization(ctx, user.OrgID)
	if err != nil {
		return err
	}
	if !org.IsActive() {
		return uc.ErrOrgSuspended
	}
	return nil
}

func (m *Manager) organization(ctx context.Context, orgID core.ID) (*model.Organization, error) {
	if org, ok := m.orgs.Get(orgID); ok {
		return org, nil
	}
	org, err := m.factory.GetOrganization(orgID).Execute(ctx)
	if err != nil {
		return nil, err
	}
	m.orgs.Add(orgID, org)
	return org, nil
}

func (m *Manager) recordAttempt(ctx context.Context, kind, outcome string) {
	if m.attempts == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("credentials", kind),
		attribute.String("outcome", outcome),
	))
}

// extractBearerToken extracts and validates the bearer token
func extractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", &authError{message: errNoAuthorization}
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", &authError{message: errInvalidAuthz, public: true}
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", &authError{message: errEmptyBearerToken, public: true}
	}
	return token, nil
}

// handleAuthError keeps credential failures generic. Account state errors
// (disabled user, suspended organization) are reported as 403.
func handleAuthError(c *gin.Context, err error) {
	var authErr *authError
	switch {
	case errors.As(err, &authErr) && authErr.public:
		router.RespondProblemWithCode(c, http.StatusUnauthorized, core.CodeUnauthorized,
			"Invalid authorization header format")
	case errors.Is(err, core.ErrForbidden):
		router.RespondError(c, err)
	case errors.Is(err, core.ErrUnauthorized), errors.Is(err, core.ErrNotFound), errors.As(err, &authErr):
		router.RespondProblemWithCode(c, http.StatusUnauthorized, core.CodeUnauthorized,
			"Invalid or missing credentials")
	default:
		router.RespondError(c, err)
	}
}

// setAuthContext sets authentication information in context
func setAuthContext(c *gin.Context, user *model.User) {
	c.Set(ContextKeyUserID, user.ID.String())
	c.Set(ContextKeyOrgID, user.OrgID.String())
	c.Set(ContextKeyUserRole, string(user.Role))
	ctx := userctx.WithUser(c.Request.Context(), user)
	ctx = logger.ContextWithLogger(ctx, logger.FromContext(ctx).With("user_id", user.ID, "org_id", user.OrgID))
	c.Request = c.Request.WithContext(ctx)
}

// authError represents an authentication error
type authError struct {
	message string
	public  bool // whether error details can be shown publicly
}

func (e *authError) Error() string {
	return e.message
}

// RequireAuth returns middleware that requires authentication
func (m *Manager) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := userctx.UserFromContext(c.Request.Context()); !ok {
			router.RespondProblemWithCode(c, http.StatusUnauthorized, core.CodeUnauthorized,
				"This endpoint requires a valid API key or access token")
			return
		}
		c.Next()
	}
}

// RequireCapability returns middleware that requires the user's role to grant capability.
func (m *Manager) RequireCapability(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := userctx.UserFromContext(c.Request.Context())
		if !ok {
			router.RespondProblemWithCode(c, http.StatusUnauthorized, core.CodeUnauthorized,
				"This endpoint requires a valid API key or access token")
			return
		}
		if !user.Can(capability) {
			router.RespondProblemWithCode(c, http.StatusForbidden, core.CodeForbidden,
				"Missing capability "+string(capability))
			return
		}
		c.Next()
	}
}
