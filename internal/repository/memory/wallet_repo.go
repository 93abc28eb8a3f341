package memory

import (
	"context"
	"sync"

	"park_wallet/internal/domain"
)

type WalletRepo struct {
	mu           sync.RWMutex
	balance      float64
	transactions []domain.WalletTransaction
}

func NewWalletRepo(initialBalance float64) *WalletRepo {
	return &WalletRepo{balance: initialBalance}
}

func (r *WalletRepo) Balance(ctx context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balance, nil
}

func (r *WalletRepo) SetBalance(ctx context.Context, balance float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balance = balance
	return nil
}

func (r *WalletRepo) Credit(ctx context.Context, amount float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balance += amount
	return r.balance, nil
}

// Debit kiểm tra bất biến không-âm tại thời điểm ghi: nếu trừ sẽ âm thì từ
// chối cả khoản và số dư giữ nguyên.
func (r *WalletRepo) Debit(ctx context.Context, amount float64) (float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balance-amount < 0 {
		return r.balance, false, nil
	}
	r.balance -= amount
	return r.balance, true, nil
}

func (r *WalletRepo) AppendTransaction(ctx context.Context, txn *domain.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, *txn)
	return nil
}

func (r *WalletRepo) Transactions(ctx context.Context) ([]domain.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.WalletTransaction, len(r.transactions))
	copy(out, r.transactions)
	return out, nil
}
