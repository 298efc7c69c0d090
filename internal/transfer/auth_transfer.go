package transfer

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims is the subset of a Supabase access token this service reads.
type SupabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}
