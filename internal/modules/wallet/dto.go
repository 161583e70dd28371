package wallet

type WithdrawalRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Note   string  `json:"note"`
}

type ProcessWithdrawalRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

type BalanceResponse struct {
	UserID  int64   `json:"user_id"`
	Balance float64 `json:"balance"`
}
