package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewMaker(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		key     string
		wantErr bool
	}{
		{name: "default is paseto", kind: "", key: testKey},
		{name: "paseto", kind: KindPaseto, key: testKey},
		{name: "jwt", kind: KindJWT, key: testKey},
		{name: "paseto short key", kind: KindPaseto, key: "short", wantErr: true},
		{name: "jwt short key", kind: KindJWT, key: "short", wantErr: true},
		{name: "unknown kind", kind: "saml", key: testKey, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maker, err := NewMaker(tt.kind, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, maker)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, maker)
		})
	}
}

func TestMakers_RoundTrip(t *testing.T) {
	for _, kind := range []string{KindPaseto, KindJWT} {
		t.Run(kind, func(t *testing.T) {
			maker, err := NewMaker(kind, testKey)
			require.NoError(t, err)

			token, err := maker.CreateToken("admin@example.com", "admin", time.Minute)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			payload, err := maker.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, "admin@example.com", payload.Email)
			assert.Equal(t, "admin", payload.Role)
			assert.NotEqual(t, uuid.Nil, payload.ID)
			assert.WithinDuration(t, time.Now().Add(time.Minute), payload.ExpiredAt, 2*time.Second)
		})
	}
}

func TestMakers_RejectTamperedToken(t *testing.T) {
	for _, kind := range []string{KindPaseto, KindJWT} {
		t.Run(kind, func(t *testing.T) {
			maker, err := NewMaker(kind, testKey)
			require.NoError(t, err)

			token, err := maker.CreateToken("user@example.com", "user", time.Minute)
			require.NoError(t, err)

			other, err := NewMaker(kind, "fedcba9876543210fedcba9876543210")
			require.NoError(t, err)

			payload, err := other.VerifyToken(token)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Nil(t, payload)
		})
	}
}

func TestPasetoMaker_Expired(t *testing.T) {
	maker, err := NewPasetoMaker(testKey)
	require.NoError(t, err)
	pm := maker.(*PasetoMaker)

	payload := &Payload{
		ID:        uuid.New(),
		Email:     "user@example.com",
		Role:      "user",
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiredAt: time.Now().Add(-time.Hour),
	}
	token, err := pm.paseto.Encrypt(pm.symmetricKey, payload, nil)
	require.NoError(t, err)

	_, err = maker.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestJWTMaker_Expired(t *testing.T) {
	maker, err := NewJWTMaker(testKey)
	require.NoError(t, err)

	claims := jwtClaims{
		Email: "user@example.com",
		Role:  "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = maker.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestJWTMaker_RejectsNoneAlgorithm(t *testing.T) {
	maker, err := NewJWTMaker(testKey)
	require.NoError(t, err)

	claims := jwtClaims{
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = maker.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewPayload_Validation(t *testing.T) {
	_, err := NewPayload("", "user", time.Minute)
	assert.Error(t, err)

	_, err = NewPayload("user@example.com", "user", 0)
	assert.Error(t, err)
}
