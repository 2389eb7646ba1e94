package models

import (
	"strings"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`

	// Optional profile fields collected on the sign-up form.
	DateOfBirth string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	SchoolOrJob string `json:"school_or_job,omitempty"`
	Location    string `json:"location,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthResponse returns the session token and the resolved profile.
type AuthResponse struct {
	Token   string   `json:"token,omitempty"`
	Profile *Profile `json:"profile"`

	// RequiresConfirmation is set when the provider sent a confirmation
	// email and no session exists yet.
	RequiresConfirmation bool `json:"requires_confirmation,omitempty"`
}

func (r *SignUpRequest) Validate() map[string]string {
	errors := make(map[string]string)

	for _, fe := range fieldErrors(r) {
		switch fe.StructField() {
		case "Email":
			if fe.Tag() == "required" {
				errors["email"] = "Email is required"
			} else {
				errors["email"] = "Email is invalid"
			}
		case "Password":
			if fe.Tag() == "required" {
				errors["password"] = "Password is required"
			} else {
				errors["password"] = "Password must be at least 6 characters"
			}
		case "Name":
			errors["name"] = "Name is required"
		case "DateOfBirth":
			errors["date_of_birth"] = "Date of birth must be YYYY-MM-DD"
		case "Gender":
			errors["gender"] = "Gender must be male, female or other"
		}
	}
	if _, ok := errors["name"]; !ok && strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

func (r *SignInRequest) Validate() map[string]string {
	errors := make(map[string]string)

	for _, fe := range fieldErrors(r) {
		switch fe.StructField() {
		case "Email":
			if fe.Tag() == "required" {
				errors["email"] = "Email is required"
			} else {
				errors["email"] = "Email is invalid"
			}
		case "Password":
			errors["password"] = "Password is required"
		}
	}

	return errors
}
