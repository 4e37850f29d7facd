package entity

type Credentials struct {
	Username string `json:"username" validate:"required,min=1,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type AuthResponse struct {
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

type TokenClaims struct {
	UserId   string `json:"userId"`
	Username string `json:"username"`
}
