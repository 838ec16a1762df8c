package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/incentraworks/incentra-backend/api/responses"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/incentraworks/incentra-backend/pkg/logger"
)

const (
	userIDHeader   = "X-User-Id"
	userRoleHeader = "X-User-Role"
	userNameHeader = "X-User-Name"
)

// Identity trusts the identity headers set by the upstream auth gateway.
// Requests without a complete identity are rejected before reaching handlers.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := strings.TrimSpace(r.Header.Get(userIDHeader))
			rawRole := strings.TrimSpace(r.Header.Get(userRoleHeader))
			name := strings.TrimSpace(r.Header.Get(userNameHeader))

			if rawID == "" || rawRole == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity headers required"))
				return
			}

			userID, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil || userID <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user id header"))
				return
			}

			role, err := enums.ParseRole(rawRole)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid role header"))
				return
			}

			ctx := WithIdentity(r.Context(), userID, role, name)
			if logg != nil {
				ctx = logg.WithUserID(ctx, rawID)
				ctx = logg.WithActorRole(ctx, role.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
