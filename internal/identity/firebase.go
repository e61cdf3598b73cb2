package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// tokenVerifier is the part of the Firebase auth client we use
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseResolver verifies Firebase ID tokens with the Admin SDK
type FirebaseResolver struct {
	client tokenVerifier
	logger *zap.Logger
}

// NewFirebaseResolver initializes the Firebase app. credentials is either a
// service account file path or inline JSON; both empty means ADC.
func NewFirebaseResolver(ctx context.Context, credentialsFile, credentialsJSON string, logger *zap.Logger) (*FirebaseResolver, error) {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(credentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firebase auth client: %w", err)
	}

	return &FirebaseResolver{client: client, logger: logger.Named("FirebaseResolver")}, nil
}

// Resolve verifies the ID token signature, expiry and audience
func (r *FirebaseResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	decoded, err := r.client.VerifyIDToken(ctx, token)
	if err != nil {
		r.logger.Debug("Firebase token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := &Identity{UID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := decoded.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}
