package converter

import (
	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
)

func WalletToResponse(wallet *entity.Wallet) *dto.WalletResponse {
	if wallet == nil {
		return nil
	}

	return &dto.WalletResponse{
		AccountNumber: wallet.AccountNumber,
		Balance:       wallet.Balance,
		Currency:      wallet.Currency,
		UpdatedAt:     wallet.UpdatedAt,
	}
}

// LedgerUserToResponse converts a ledger user; wallet may be nil.
func LedgerUserToResponse(user *entity.LedgerUser, wallet *entity.Wallet) *dto.LedgerUserResponse {
	if user == nil {
		return nil
	}

	response := &dto.LedgerUserResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Role:      user.Role,
		IsActive:  user.IsActive,
		Wallet:    WalletToResponse(wallet),
		CreatedAt: user.CreatedAt,
	}
	if user.Email != nil {
		response.Email = *user.Email
	}
	if user.WalletAddress != nil {
		response.WalletAddress = *user.WalletAddress
	}

	return response
}

func LedgerUsersToResponses(users []entity.LedgerUser) []dto.LedgerUserResponse {
	responses := make([]dto.LedgerUserResponse, len(users))
	for i := range users {
		responses[i] = *LedgerUserToResponse(&users[i], nil)
	}
	return responses
}

// TransactionToResponse converts a transaction. A viewer of 0 leaves the
// direction empty, as on admin listings.
func TransactionToResponse(tx *entity.Transaction, viewerID int64) *dto.TransactionResponse {
	if tx == nil {
		return nil
	}

	response := &dto.TransactionResponse{
		ID:              tx.ID,
		TxHash:          tx.TxHash,
		Type:            string(tx.Type),
		Status:          string(tx.Status),
		SenderID:        tx.SenderID,
		SenderName:      tx.SenderName,
		ReceiverID:      tx.ReceiverID,
		ReceiverName:    tx.ReceiverName,
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		Fee:             tx.Fee,
		ConvertedAmount: tx.ConvertedAmount,
		TargetCurrency:  tx.TargetCurrency,
		ExchangeRate:    tx.ExchangeRate,
		Description:     tx.Description,
		CreatedAt:       tx.CreatedAt,
	}
	if viewerID != 0 {
		response.Direction = tx.DirectionFor(viewerID)
	}

	return response
}

func TransactionsToResponses(txs []entity.Transaction, viewerID int64) []dto.TransactionResponse {
	responses := make([]dto.TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = *TransactionToResponse(&txs[i], viewerID)
	}
	return responses
}

func LoanToResponse(loan *entity.LoanRequest) *dto.LoanResponse {
	if loan == nil {
		return nil
	}

	return &dto.LoanResponse{
		ID:              loan.ID,
		UserID:          loan.UserID,
		UserName:        loan.UserName,
		Amount:          loan.Amount,
		TermMonths:      loan.TermMonths,
		InterestRate:    loan.InterestRate,
		Purpose:         loan.Purpose,
		Status:          string(loan.Status),
		RejectionReason: loan.RejectionReason,
		TotalDue:        loan.TotalDue(),
		RepaidAmount:    loan.RepaidAmount,
		Outstanding:     loan.Outstanding(),
		ReviewedAt:      loan.ReviewedAt,
		CreatedAt:       loan.CreatedAt,
	}
}

func LoansToResponses(loans []entity.LoanRequest) []dto.LoanResponse {
	responses := make([]dto.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = *LoanToResponse(&loans[i])
	}
	return responses
}

func LedgerStatsToResponse(stats *entity.LedgerStats) *dto.LedgerStatsResponse {
	balances := make([]dto.CurrencyBalanceResponse, len(stats.Balances))
	for i, b := range stats.Balances {
		balances[i] = dto.CurrencyBalanceResponse{Currency: b.Currency, Total: b.Total, Wallets: b.Wallets}
	}
	volumes := make([]dto.CurrencyVolumeResponse, len(stats.TodayVolume))
	for i, v := range stats.TodayVolume {
		volumes[i] = dto.CurrencyVolumeResponse{Currency: v.Currency, Transactions: v.Transactions, Volume: v.Volume}
	}

	return &dto.LedgerStatsResponse{
		TotalUsers:        stats.TotalUsers,
		ActiveUsers:       stats.ActiveUsers,
		Balances:          balances,
		TodayTransactions: stats.TodayTransactions,
		TodayVolume:       volumes,
		PendingLoans:      stats.PendingLoans,
	}
}
