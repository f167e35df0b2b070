package operations

import (
	"github.com/arabah/arabah/validation"
)

// Length limits for free-text input.
const (
	MaxNoteLength    = 500
	MaxReviewLength  = 500
	MinTicketMessage = 10
	MaxTicketMessage = 1000
)

// NoParams is the input of operations that take none.
type NoParams struct{}

type LoginParams struct {
	CountryCode string
	PhoneNumber string
}

func validateLogin(p LoginParams) error {
	return validation.Phone(p.CountryCode, p.PhoneNumber)
}

type VerifyOTPParams struct {
	UserID string
	OTP    string
}

func validateVerifyOTP(p VerifyOTPParams) error {
	return validation.All(
		validation.ID("user id", p.UserID),
		validation.OTP(p.OTP),
	)
}

type ResendOTPParams struct {
	UserID string
}

func validateResendOTP(p ResendOTPParams) error {
	return validation.ID("user id", p.UserID)
}

// ProfileParams edits the profile. Email and phone are optional but checked when set.
type ProfileParams struct {
	Name        string
	Email       string
	CountryCode string
	PhoneNumber string
	Image       string
}

func validateProfile(p ProfileParams) error {
	if err := validation.Name(p.Name); err != nil {
		return err
	}
	if p.Email != "" {
		if err := validation.Email(p.Email); err != nil {
			return err
		}
	}
	if p.CountryCode != "" || p.PhoneNumber != "" {
		return validation.Phone(p.CountryCode, p.PhoneNumber)
	}
	return nil
}

type CategoryParams struct {
	CategoryID string
}

func validateCategory(p CategoryParams) error {
	return validation.ID("category id", p.CategoryID)
}

type ProductParams struct {
	ProductID string
}

func validateProduct(p ProductParams) error {
	return validation.ID("product id", p.ProductID)
}

type FavoriteParams struct {
	ProductID string
	Like      bool
}

func validateFavorite(p FavoriteParams) error {
	return validation.ID("product id", p.ProductID)
}

type NoteParams struct {
	Text string
}

func validateNote(p NoteParams) error {
	return validation.Message("note", p.Text, 1, MaxNoteLength)
}

type DeleteNoteParams struct {
	NoteID string
}

func validateDeleteNote(p DeleteNoteParams) error {
	return validation.ID("note id", p.NoteID)
}

type RatingParams struct {
	ProductID string
	Rating    int
	Review    string
}

func validateRating(p RatingParams) error {
	if err := validation.All(validation.ID("product id", p.ProductID), validation.Rating(p.Rating)); err != nil {
		return err
	}
	if p.Review != "" {
		return validation.Message("review", p.Review, 1, MaxReviewLength)
	}
	return nil
}

// TicketParams is a contact-support message.
type TicketParams struct {
	Name    string
	Email   string
	Message string
}

func validateTicket(p TicketParams) error {
	return validation.All(
		validation.Name(p.Name),
		validation.Email(p.Email),
		validation.Message("message", p.Message, MinTicketMessage, MaxTicketMessage),
	)
}

type NotificationParams struct {
	Enabled bool
}
