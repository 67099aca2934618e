package model

import "time"

// User represents a learner account.
type User struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	FullName  string    `json:"fullName" gorm:"size:255;not null"`
	Age       *int      `json:"age"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone" gorm:"size:50"`
	About     string    `json:"about"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterRequest is the payload for creating an account with email and password.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=5,max=128"`
	FullName string `json:"fullName" binding:"required,min=1,max=255"`
	Age      *int   `json:"age" binding:"omitempty,min=0,max=150"`
	Address  string `json:"address" binding:"omitempty,max=1000"`
	Phone    string `json:"phone" binding:"omitempty,max=50"`
	About    string `json:"about" binding:"omitempty,max=2000"`
}

// LoginRequest is the payload for password authentication. Presence is
// checked by the service so each missing field gets its own message.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries a Google ID token from the client.
type GoogleLoginRequest struct {
	Token string `json:"token"`
}

// UpdateProfileRequest is the payload for editing the caller's profile.
type UpdateProfileRequest struct {
	FullName string `json:"fullName" binding:"omitempty,min=1,max=255"`
	Age      *int   `json:"age" binding:"omitempty,min=0,max=150"`
	Address  string `json:"address" binding:"omitempty,max=1000"`
	Phone    string `json:"phone" binding:"omitempty,max=50"`
	About    string `json:"about" binding:"omitempty,max=2000"`
}
