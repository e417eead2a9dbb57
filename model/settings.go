package model

type Settings struct {
	BookingPaymentTimeSeconds *int `json:"bookingPaymentTimeSeconds" validate:"required,min=1"`
}
