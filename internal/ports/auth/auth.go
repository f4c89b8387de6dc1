// Package auth es el puerto de verificación de identidad. Los adapters (jwt,
// iam) lo implementan; el middleware solo conoce esta interfaz.
package auth

import "context"

// Claims ya verificadas. Role y ClinicID se validan recién en access.FromClaims.
type Claims struct {
	UserID   string
	Email    string
	Role     string
	ClinicID string // vacío para ADMIN
}

type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
