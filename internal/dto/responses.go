package dto

import (
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// AuthResponse is returned by register and login
type AuthResponse struct {
	User   *models.User       `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// ListResponse оборачивает страницу списка.
type ListResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func NewListResponse(data interface{}, count, limit, offset int) ListResponse {
	return ListResponse{
		Data:       data,
		Pagination: Pagination{Limit: limit, Offset: offset, Count: count},
	}
}

type CheckMatchesResponse struct {
	Matches []models.AlertMatches `json:"matches"`
}

type ViewsResponse struct {
	Views int `json:"views"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}
