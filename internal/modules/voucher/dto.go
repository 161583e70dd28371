package voucher

// ValidationResult is the read-only answer to "what would this voucher do
// to this booking amount". It never has side effects.
type ValidationResult struct {
	Valid          bool    `json:"valid"`
	Message        string  `json:"message,omitempty"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}

type ValidateRequest struct {
	Code          string  `json:"code" form:"code" binding:"required"`
	HotelID       int64   `json:"hotel_id" form:"hotel_id" binding:"required"`
	BookingAmount float64 `json:"booking_amount" form:"booking_amount" binding:"required"`
}

type CreateVoucherRequest struct {
	Code            string   `json:"code" binding:"required"`
	DiscountType    string   `json:"discount_type" binding:"required"`
	DiscountValue   float64  `json:"discount_value" binding:"required"`
	MaxDiscount     *float64 `json:"max_discount"`
	MinBookingValue *float64 `json:"min_booking_value"`
	StartDate       string   `json:"start_date" binding:"required"`
	EndDate         string   `json:"end_date" binding:"required"`
	UsageLimit      *int     `json:"usage_limit"`
	Scope           string   `json:"scope"`
	HotelIDs        []int64  `json:"hotel_ids"`
}
