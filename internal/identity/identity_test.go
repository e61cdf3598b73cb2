package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJWTResolver(t *testing.T) {
	r, err := NewJWTResolver("test-secret", zap.NewNop())
	require.NoError(t, err)

	valid, err := r.Issue("uid-1", "kid@example.com", "Kid", time.Hour)
	require.NoError(t, err)
	expired, err := r.Issue("uid-1", "", "", -time.Minute)
	require.NoError(t, err)

	other, err := NewJWTResolver("other-secret", nil)
	require.NoError(t, err)
	foreign, err := other.Issue("uid-1", "", "", time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
		wantUID string
	}{
		{name: "valid", token: valid, wantUID: "uid-1"},
		{name: "empty", token: "", wantErr: ErrMissingToken},
		{name: "expired", token: expired, wantErr: ErrInvalidToken},
		{name: "wrong secret", token: foreign, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrInvalidToken},
		{name: "no subject", token: noSubject, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := r.Resolve(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, id.UID)
			assert.Equal(t, "kid@example.com", id.Email)
		})
	}
}

func TestNewJWTResolverRequiresSecret(t *testing.T) {
	_, err := NewJWTResolver("", nil)
	assert.Error(t, err)
}

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseResolver(t *testing.T) {
	t.Run("maps claims", func(t *testing.T) {
		r := &FirebaseResolver{
			client: fakeVerifier{token: &auth.Token{UID: "fb-1", Claims: map[string]interface{}{"email": "a@b.c", "name": "Ann"}}},
			logger: zap.NewNop(),
		}
		id, err := r.Resolve(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, &Identity{UID: "fb-1", Email: "a@b.c", Name: "Ann"}, id)
	})

	t.Run("rejects", func(t *testing.T) {
		r := &FirebaseResolver{client: fakeVerifier{err: errors.New("expired")}, logger: zap.NewNop()}
		_, err := r.Resolve(context.Background(), "token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing", func(t *testing.T) {
		r := &FirebaseResolver{client: fakeVerifier{}, logger: zap.NewNop()}
		_, err := r.Resolve(context.Background(), "")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}
