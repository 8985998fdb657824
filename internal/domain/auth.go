package domain

// Role is what a token is allowed to do.
type Role string

const (
	// RoleManager has full access.
	RoleManager Role = "gestor"
	// RoleViewer only reaches the consulta routes.
	RoleViewer Role = "consulta"
)

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Role     Role   `json:"role" validate:"required,oneof=gestor consulta"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body for 200 from POST /v1/auth/login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	Role        Role   `json:"role"`
}
