package httpserver

import (
	"time"

	"github.com/dmitrijs2005/oclus/internal/server/models"
	"github.com/dmitrijs2005/oclus/internal/server/services"
)

type registerRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

type registerResponse struct {
	ID int64 `json:"id"`
}

type confirmRequest struct {
	RequestID int64  `json:"request_id" binding:"required"`
	Code      string `json:"code" binding:"required,len=6,numeric"`
	Username  string `json:"username" binding:"required,username"`
	Password  string `json:"password" binding:"required,min=12,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenPairResponse struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

func newTokenPairResponse(p *services.TokenPair) tokenPairResponse {
	return tokenPairResponse{AuthToken: p.AuthToken, RefreshToken: p.RefreshToken}
}

type privateProfile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	RegisteredOn time.Time `json:"registered_on"`
}

func newPrivateProfile(u *models.User) privateProfile {
	return privateProfile{ID: u.ID, Email: u.Email, Username: u.UserName, RegisteredOn: u.CreatedAt}
}

type publicProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type updateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email,max=254"`
	Username *string `json:"username" binding:"omitempty,username"`
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=12,max=72"`
}

type createGroupRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

type updateGroupRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=64"`
	OwnerID *string `json:"owner_id" binding:"omitempty,uuid"`
}

type groupResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

func newGroupResponse(g *models.Group) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID, CreatedAt: g.CreatedAt}
}

type publicGroup struct {
	Name string `json:"name"`
}
