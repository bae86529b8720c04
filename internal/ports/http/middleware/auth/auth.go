package auth

import (
	"context"
	"errors"
	"flash-alliance/internal/model"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

const DefaultIssuer = "flash-alliance"

type contextKey string

const callerKey contextKey = "caller"

var ErrNoCaller = errors.New("caller is missing in the request context")

type JwtTokenParams struct {
	Issuer string
	// Secret is the HS256 key. Without it signatures are not checked, which
	// is only meant for local development.
	Secret string
}

type TokenValidator struct {
	JwtTokenParams
	logger *zap.Logger
	now    func() time.Time
}

func NewTokenValidator(logger *zap.Logger, params JwtTokenParams) TokenValidator {
	if params.Secret == "" {
		logger.Warn("auth secret is not set, bearer token signatures are not verified")
	}
	return TokenValidator{logger: logger, JwtTokenParams: params, now: time.Now}
}

// Authenticate resolves the caller address from the bearer token subject.
func (t TokenValidator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(token, "Bearer ") {
			t.authError(w, errors.New("bearer token is missing"))
			return
		}

		claims, err := t.parseToken(strings.TrimPrefix(token, "Bearer "))
		if err != nil {
			t.authError(w, errors.New("failed to parse the auth token: "+err.Error()))
			return
		}

		if err := t.validateClaims(claims); err != nil {
			t.authError(w, errors.New("auth token validation: "+err.Error()))
			return
		}

		caller, err := model.ParseAddress(claims.Subject)
		if err != nil {
			t.authError(w, errors.New("auth token subject: "+err.Error()))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func (t TokenValidator) authError(w http.ResponseWriter, err error) {
	t.logger.Warn(err.Error())
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(err.Error()))
}

func (t TokenValidator) validateClaims(claims jwt.Claims) error {
	expected := jwt.Expected{Time: t.now()}
	if t.Issuer != "" {
		expected.Issuer = t.Issuer
	}
	return claims.Validate(expected)
}

func (t TokenValidator) parseToken(tokenString string) (jwt.Claims, error) {
	var claims jwt.Claims

	token, err := jwt.ParseSigned(tokenString)
	if err != nil {
		return jwt.Claims{}, err
	}

	if t.Secret == "" {
		if err := token.UnsafeClaimsWithoutVerification(&claims); err != nil {
			return jwt.Claims{}, err
		}
		return claims, nil
	}

	if err := token.Claims([]byte(t.Secret), &claims); err != nil {
		return jwt.Claims{}, err
	}
	return claims, nil
}

// IssueToken signs a bearer token for subject. A zero ttl issues a token
// that does not expire.
func IssueToken(params JwtTokenParams, subject model.Address, now time.Time, ttl time.Duration) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: []byte(params.Secret)},
		(&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", errors.New("failed to create the token signer: " + err.Error())
	}

	claims := jwt.Claims{
		Issuer:   params.Issuer,
		Subject:  subject.String(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.Expiry = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.Signed(signer).Claims(claims).CompactSerialize()
}

func WithCaller(ctx context.Context, caller model.Address) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func CallerFrom(ctx context.Context) (model.Address, error) {
	caller, ok := ctx.Value(callerKey).(model.Address)
	if !ok || caller.IsZero() {
		return "", ErrNoCaller
	}
	return caller, nil
}
