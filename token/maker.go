package token

import (
	"fmt"
	"time"
)

// Maker is implemented by every token format the API can issue, so the
// format can be switched by configuration without touching handlers.
type Maker interface {
	CreateToken(email string, role string, duration time.Duration) (string, error)

	VerifyToken(token string) (*Payload, error)
}

const (
	KindPaseto = "paseto"
	KindJWT    = "jwt"
)

// NewMaker builds the Maker named by kind ("paseto" or "jwt").
func NewMaker(kind string, symmetricKey string) (Maker, error) {
	switch kind {
	case "", KindPaseto:
		return NewPasetoMaker(symmetricKey)
	case KindJWT:
		return NewJWTMaker(symmetricKey)
	default:
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}
}
