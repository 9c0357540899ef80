package blockchain

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

func TestCheckLamportDelta(t *testing.T) {
	recipient := solana.NewWallet().PublicKey()
	sender := solana.NewWallet().PublicKey()
	keys := []solana.PublicKey{sender, recipient}

	tests := []struct {
		name     string
		pre      []uint64
		post     []uint64
		expected uint64
		wantErr  error
	}{
		{
			name:     "exact amount",
			pre:      []uint64{2_000_000_000, 500_000_000},
			post:     []uint64{1_899_995_000, 600_000_000},
			expected: 100_000_000,
			wantErr:  nil,
		},
		{
			name:     "overpayment accepted",
			pre:      []uint64{2_000_000_000, 0},
			post:     []uint64{1_799_995_000, 200_000_000},
			expected: 100_000_000,
			wantErr:  nil,
		},
		{
			name:     "underpayment",
			pre:      []uint64{2_000_000_000, 0},
			post:     []uint64{1_949_995_000, 50_000_000},
			expected: 100_000_000,
			wantErr:  ErrInsufficientAmount,
		},
		{
			name:     "balance decreased",
			pre:      []uint64{2_000_000_000, 500_000_000},
			post:     []uint64{2_100_000_000, 400_000_000},
			expected: 100_000_000,
			wantErr:  ErrInsufficientAmount,
		},
	}

	for _, tt := range tests {
		err := checkLamportDelta(keys, tt.pre, tt.post, recipient, tt.expected)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestCheckLamportDeltaRecipientAbsent(t *testing.T) {
	recipient := solana.NewWallet().PublicKey()
	keys := []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()}

	err := checkLamportDelta(keys, []uint64{1, 2}, []uint64{1, 2}, recipient, 100)
	if !errors.Is(err, ErrRecipientMismatch) {
		t.Errorf("expected ErrRecipientMismatch, got %v", err)
	}
}

func tokenBalance(index uint16, owner solana.PublicKey, mint solana.PublicKey, amount string) rpc.TokenBalance {
	return rpc.TokenBalance{
		AccountIndex:  index,
		Mint:          mint,
		Owner:         &owner,
		UiTokenAmount: &rpc.UiTokenAmount{Amount: amount},
	}
}

func TestCheckTokenDelta(t *testing.T) {
	recipient := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	tests := []struct {
		name     string
		pre      []rpc.TokenBalance
		post     []rpc.TokenBalance
		expected uint64
		wantErr  error
	}{
		{
			name:     "sufficient transfer",
			pre:      []rpc.TokenBalance{tokenBalance(1, recipient, mint, "1000000")},
			post:     []rpc.TokenBalance{tokenBalance(1, recipient, mint, "6000000")},
			expected: 5_000_000,
			wantErr:  nil,
		},
		{
			name:     "fresh token account",
			pre:      nil,
			post:     []rpc.TokenBalance{tokenBalance(1, recipient, mint, "5000000")},
			expected: 5_000_000,
			wantErr:  nil,
		},
		{
			name:     "underpayment",
			pre:      []rpc.TokenBalance{tokenBalance(1, recipient, mint, "1000000")},
			post:     []rpc.TokenBalance{tokenBalance(1, recipient, mint, "2000000")},
			expected: 5_000_000,
			wantErr:  ErrInsufficientAmount,
		},
		{
			name:     "paid to someone else",
			pre:      []rpc.TokenBalance{tokenBalance(1, other, mint, "0")},
			post:     []rpc.TokenBalance{tokenBalance(1, other, mint, "5000000")},
			expected: 5_000_000,
			wantErr:  ErrRecipientMismatch,
		},
		{
			name:     "wrong mint",
			pre:      nil,
			post:     []rpc.TokenBalance{tokenBalance(1, recipient, solana.NewWallet().PublicKey(), "5000000")},
			expected: 5_000_000,
			wantErr:  ErrRecipientMismatch,
		},
	}

	for _, tt := range tests {
		err := checkTokenDelta(tt.pre, tt.post, recipient, mint.String(), tt.expected)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestValidateWalletAddress(t *testing.T) {
	client := NewSolanaClient("devnet", "")

	if !client.ValidateWalletAddress(solana.NewWallet().PublicKey().String()) {
		t.Error("expected generated address to validate")
	}
	if client.ValidateWalletAddress("not-a-wallet") {
		t.Error("expected garbage address to be rejected")
	}
	if client.ValidateWalletAddress("") {
		t.Error("expected empty address to be rejected")
	}
}

func TestNetworkIdentifier(t *testing.T) {
	client := NewSolanaClient("mainnet-beta", "")
	if client.Network() != "mainnet-beta" {
		t.Errorf("expected mainnet-beta, got %s", client.Network())
	}
}
