package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims for an authenticated user
type UserClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// RegisterRequest is the request body for account creation
type RegisterRequest struct {
	Name            string `json:"nome" validate:"required,min=2,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"senha" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmarSenha" validate:"required,eqfield=Password"`
	BirthDate       string `json:"data_nascimento" validate:"required,datetime=2006-01-02"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"senha" validate:"required"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}
