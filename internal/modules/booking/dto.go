package booking

type CreateBookingRequest struct {
	HotelID       int64  `json:"hotel_id" binding:"required"`
	RoomTypeID    int64  `json:"room_type_id" binding:"required"`
	CheckInDate   string `json:"check_in_date" binding:"required"`
	CheckOutDate  string `json:"check_out_date" binding:"required"`
	Guests        int    `json:"guests" binding:"required"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	GuestPhone    string `json:"guest_phone"`
	VoucherCode   string `json:"voucher_code"`
	PaymentMethod string `json:"payment_method"`
}

// UpdateBookingRequest is the narrow field subset a guest may change while
// the booking is still PENDING. Nil means "leave as is".
type UpdateBookingRequest struct {
	CheckInDate  *string `json:"check_in_date"`
	CheckOutDate *string `json:"check_out_date"`
	Guests       *int    `json:"guests"`
	GuestName    *string `json:"guest_name"`
	GuestEmail   *string `json:"guest_email"`
	GuestPhone   *string `json:"guest_phone"`
}

type CancelBookingRequest struct {
	Reason         string   `json:"reason" binding:"required"`
	RefundToWallet bool     `json:"refund_to_wallet"`
	RefundAmount   *float64 `json:"refund_amount"`
}

type AvailabilityQuery struct {
	RoomTypeID   int64  `form:"room_type_id" binding:"required"`
	CheckInDate  string `form:"check_in_date" binding:"required"`
	CheckOutDate string `form:"check_out_date" binding:"required"`
}
