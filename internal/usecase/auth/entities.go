package auth

import (
	"time"

	"orbitlend-backend/internal/domain/user"
)

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type WalletConnectInput struct {
	WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
}

type WalletVerifyInput struct {
	WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
	Signature     string `json:"signature" validate:"required"`
}

type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *user.User `json:"user"`
	IsNewUser bool       `json:"isNewUser,omitempty"`
}

type Challenge struct {
	Message   string    `json:"message"`
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expiresAt"`
}
