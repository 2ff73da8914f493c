package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialpulse/backend/internal/models"
)

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseUserLookup maps a Firebase UID to a local user.
type FirebaseUserLookup interface {
	GetUserByFirebaseUID(firebaseUID string) (*models.User, error)
}

// FirebaseAuthenticator accepts Firebase ID tokens whose UID belongs to a
// local user, and authenticates as that user.
func FirebaseAuthenticator(verifier IDTokenVerifier, users FirebaseUserLookup) Authenticator {
	return func(ctx context.Context, idToken string) (*models.JwtCustomClaims, error) {
		token, err := verifier.VerifyIDToken(ctx, idToken)
		if err != nil {
			return nil, fmt.Errorf("verify firebase id token: %w", err)
		}

		user, err := users.GetUserByFirebaseUID(token.UID)
		if err != nil {
			return nil, fmt.Errorf("firebase uid %s: %w", token.UID, err)
		}
		if user.Suspended {
			return nil, fmt.Errorf("user %d is suspended", user.ID)
		}

		return &models.JwtCustomClaims{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		}, nil
	}
}
