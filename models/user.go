package models

import (
	"context"
	"errors"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "A"
	UserRoleOwner   UserRole = "O"
	UserRoleCashier UserRole = "C"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	StoreId   string    `gorm:"index" json:"store_id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     *string   `gorm:"size:100;unique" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	Role      UserRole  `gorm:"type:enum('A','O','C');default:'C'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	StoreId  string   `json:"store_id"`
	Username string   `json:"username" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Password string   `json:"password" binding:"required"`
	Role     UserRole `json:"role"`
}

type LoginInfo struct {
	Token          string `json:"token"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	StoreId        string `json:"store_id"`
	StoreName      string `json:"store_name"`
	CurrencyCode   string `json:"currency_code"`
	CurrencySymbol string `json:"currency_symbol"`
	Timezone       string `json:"timezone"`
}

/*
caches:
	User:$username
	Token:$token
*/

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = UserRoleCashier
	}

	user := User{
		StoreId:  input.StoreId,
		Username: input.Username,
		Name:     input.Name,
		Phone:    input.Phone,
		Password: hashed,
		IsActive: utils.NewTrue(),
		Role:     role,
	}
	if input.Email != "" {
		user.Email = &input.Email
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	db := config.GetDB()

	var result LoginInfo
	user := User{}

	// get User info
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return &result, err
	}
	if !exists {
		err = db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error
		if err != nil {
			return &result, errors.New("invalid username or password")
		}
	}

	// check login credentials
	if !utils.CheckPasswordHash(password, user.Password) {
		return &result, errors.New("invalid username or password")
	}

	if user.IsActive == nil || !*user.IsActive {
		return &result, errors.New("user is disabled")
	}

	// generate token & response
	token, err := utils.JwtGenerate(user.ID, string(user.Role), user.StoreId)
	if err != nil {
		return &result, err
	}
	result.Token = token
	result.Name = user.Username
	result.StoreId = user.StoreId
	switch user.Role {
	case UserRoleAdmin:
		result.Role = "Admin"
	case UserRoleOwner:
		result.Role = "Owner"
	default:
		result.Role = "Cashier"
	}

	if user.StoreId != "" {
		store, err := GetStoreById(ctx, user.StoreId)
		if err != nil {
			return nil, err
		}
		result.StoreName = store.Name
		result.CurrencyCode = store.CurrencyCode
		result.CurrencySymbol = store.CurrencySymbol
		result.Timezone = store.Timezone
	}

	// cache the user and session token
	_ = config.SetRedisObject("User:"+username, &user, time.Hour)
	if err := utils.StoreSessionToken(result.Token, user.Username, 24*time.Hour); err != nil {
		return &result, err
	}

	return &result, nil
}

func Logout(token string) error {
	return config.RemoveRedisKey("Token:" + token)
}
