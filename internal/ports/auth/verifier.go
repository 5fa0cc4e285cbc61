package auth

import "context"

// AuthVerifier valida un bearer token emitido por el proveedor de sesión
// (fuera de este servicio) y devuelve los claims del usuario.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
