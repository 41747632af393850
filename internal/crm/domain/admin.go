package domain

import "time"

type Admin struct {
	ID           int64
	Username     string
	PasswordHash string // argon2id PHC string, or bcrypt for accounts not yet upgraded
	Email        string
	CreatedAt    time.Time
	LastLoginAt  *time.Time // derniere_connexion (nullable)
}
