package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tnttag/internal/app/onboarding"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// afterAuthenticateDevice onboards accounts created by device authentication:
// they get a generated display name and an empty stats record.
func (m *Module) afterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	if out == nil || !out.Created {
		return nil
	}

	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		resolvedID, err := userIDFromSessionToken(out.Token)
		if err != nil {
			logger.Error("AfterAuthenticateDevice: Failed to extract user ID from token: %v", err)
			return err
		}
		userID = resolvedID
	}

	service := onboarding.NewService(newAccountAdapter(nk, m.Catalog.Resolve(m.Settings.Locale)), m.Stats, nil)
	result, err := service.OnboardNewUser(ctx, userID)
	if result.ProfileUpdateErr != nil {
		logger.Warn("AfterAuthenticateDevice: Failed to update profile for user %s: %v", userID, result.ProfileUpdateErr)
	}
	if err != nil {
		logger.Error("AfterAuthenticateDevice: Onboarding failed for user %s: %v", userID, err)
		return err
	}

	logger.Info("AfterAuthenticateDevice: Onboarded new user %s as %q", userID, result.DisplayName)
	return nil
}

// userIDFromSessionToken reads the uid claim of a Nakama session token. The
// token was just issued by the server, so its signature is not checked.
func userIDFromSessionToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", errors.New("token claims missing uid")
	}
	return uid, nil
}
