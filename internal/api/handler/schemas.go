package handler

import (
	"time"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=60"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty" form:"-"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Periods ---

type createPeriodRequest struct {
	Name     string    `json:"name" validate:"required,max=120"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

// --- Catalog ---

type stepsResponse struct {
	Total int `json:"total"`
}

// --- Forms ---

type formRequest struct {
	UserID   string          `json:"user_id" validate:"required"`
	PeriodID string          `json:"period_id" validate:"required"`
	Answers  []domain.Answer `json:"answers"`
}

type patchFormRequest struct {
	Answers []domain.Answer `json:"answers"`
}

// --- Users ---

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// --- Wizard ---

type answerRequest struct {
	OptionID string `json:"option_id" form:"option_id"`
	Text     string `json:"text" form:"text"`
}

type advanceResponse struct {
	Advanced bool `json:"advanced"`
	View     any  `json:"view"`
}

type messageResponse struct {
	Message string `json:"message"`
}
