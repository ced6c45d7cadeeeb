package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Username  string `json:"username" form:"username" binding:"required,min=3,max=150"`
	Password  string `json:"password" form:"password" binding:"required,min=6"`
	Email     string `json:"email" form:"email" binding:"omitempty,email"`
	FirstName string `json:"first_name" form:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" form:"last_name" binding:"max=150"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResponse struct {
	Token string          `json:"token"`
	User  UserWithProfile `json:"user"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name" form:"first_name"`
	LastName  *string `json:"last_name" form:"last_name"`
	Email     *string `json:"email" form:"email" binding:"omitempty,email"`
	Bio       *string `json:"bio" form:"bio"`
}

// ProductInput carries create and update values; nil fields are left unchanged
// on update.
type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Discount    *int             `json:"discount"`
	Archived    *bool            `json:"archived"`
}

type BulkIDsRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

type OrderInput struct {
	DeliveryAddress *string `json:"delivery_address"`
	Promocode       *string `json:"promocode"`
	UserID          *int    `json:"user_id"`
	ProductIDs      *[]int  `json:"products"`
}

type ArticleInput struct {
	Title      *string    `json:"title"`
	Content    *string    `json:"content"`
	AuthorID   *int       `json:"author_id"`
	CategoryID *int       `json:"category_id"`
	TagIDs     *[]int     `json:"tags"`
	PubDate    *time.Time `json:"pub_date"`
}

type GroupRequest struct {
	Name        string   `json:"name" binding:"required,max=150"`
	Permissions []string `json:"permissions"`
}

type UserBioRequest struct {
	Name string `json:"name" form:"name" binding:"required,max=33"`
	Age  int    `json:"age" form:"age" binding:"required,min=1,max=111"`
	Bio  string `json:"bio" form:"bio" binding:"required"`
}
