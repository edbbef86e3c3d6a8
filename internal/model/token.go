package model

import "time"

// TokenData contains the data stored with a session token.
type TokenData struct {
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountValidation contains the result of credential validation.
type AccountValidation struct {
	AccountID int64
	Username  string
	Role      string
	Status    string
}
