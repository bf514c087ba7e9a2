package dto

import "time"

// Request DTOs

type LedgerRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Currency string `json:"currency" validate:"omitempty,iso4217"`
}

type LedgerLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type WalletNonceRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

type WalletLoginRequest struct {
	Address   string `json:"address" validate:"required,eth_addr"`
	Signature string `json:"signature" validate:"required,startswith=0x,len=132"`
}

// Response DTOs

type WalletNonceResponse struct {
	Address   string    `json:"address"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LedgerUserResponse struct {
	ID            int64           `json:"id"`
	Email         string          `json:"email,omitempty"`
	FullName      string          `json:"full_name"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	Role          string          `json:"role"`
	IsActive      bool            `json:"is_active"`
	Wallet        *WalletResponse `json:"wallet,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type LedgerSessionResponse struct {
	User   *LedgerUserResponse `json:"user"`
	Tokens *TokenResponse      `json:"tokens"`
}
