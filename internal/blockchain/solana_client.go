package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// Verification failure reasons. Handlers map all of these to a payment
// failure; ErrTransport additionally gets a generic retry message so RPC
// internals never leak to clients.
var (
	ErrTransactionNotFound = errors.New("transaction not found on chain")
	ErrTransactionFailed   = errors.New("transaction failed on chain")
	ErrRecipientMismatch   = errors.New("transaction recipient mismatch")
	ErrInsufficientAmount  = errors.New("transaction amount below required payment")
	ErrTransport           = errors.New("blockchain rpc unreachable")
)

const (
	verifyAttempts   = 3
	verifyRetryDelay = 500 * time.Millisecond
)

// wrappedSOLMint marks payments made in native SOL rather than an SPL token
const wrappedSOLMint = "So11111111111111111111111111111111111111112"

// SolanaClient handles Solana blockchain interactions
type SolanaClient struct {
	rpcClient *rpc.Client
	network   string
}

// NewSolanaClient creates a client for the given network. rpcURL overrides
// the default public endpoint when non-empty.
func NewSolanaClient(network, rpcURL string) *SolanaClient {
	if rpcURL == "" {
		switch network {
		case "mainnet-beta":
			rpcURL = "https://api.mainnet-beta.solana.com"
		case "testnet":
			rpcURL = "https://api.testnet.solana.com"
		default:
			rpcURL = "https://api.devnet.solana.com"
		}
	}

	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		network:   network,
	}
}

// Network returns the network identifier advertised in payment requirements
func (s *SolanaClient) Network() string {
	return s.network
}

// ValidateWalletAddress validates a Solana wallet address format
func (s *SolanaClient) ValidateWalletAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

// VerifyPayment checks that the transaction behind signature actually paid at
// least expectedAmount (smallest units of mint) to recipient. Transport
// errors are retried a bounded number of times before surfacing.
func (s *SolanaClient) VerifyPayment(ctx context.Context, signature, recipient, mint string, expectedAmount uint64) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("%w: bad signature encoding", ErrTransactionNotFound)
	}

	recipientKey, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	var tx *rpc.GetTransactionResult
	maxVersion := uint64(0)
	for attempt := 1; attempt <= verifyAttempts; attempt++ {
		tx, err = s.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxVersion,
		})
		if err == nil {
			break
		}
		if errors.Is(err, rpc.ErrNotFound) {
			return ErrTransactionNotFound
		}
		if attempt == verifyAttempts {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
		log.Printf("[SolanaClient] getTransaction attempt %d failed, retrying: %v", attempt, err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
		case <-time.After(time.Duration(attempt) * verifyRetryDelay):
		}
	}

	if tx == nil || tx.Meta == nil {
		return ErrTransactionNotFound
	}
	if tx.Meta.Err != nil {
		return ErrTransactionFailed
	}

	decoded, err := tx.Transaction.GetTransaction()
	if err != nil {
		return fmt.Errorf("%w: undecodable transaction", ErrTransactionFailed)
	}

	if mint == "" || mint == wrappedSOLMint {
		return checkLamportDelta(decoded.Message.AccountKeys, tx.Meta.PreBalances, tx.Meta.PostBalances, recipientKey, expectedAmount)
	}
	return checkTokenDelta(tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances, recipientKey, mint, expectedAmount)
}

// checkLamportDelta verifies a native SOL transfer via the recipient's
// pre/post balance difference
func checkLamportDelta(keys []solana.PublicKey, pre, post []uint64, recipient solana.PublicKey, expected uint64) error {
	recipientIndex := -1
	for i, key := range keys {
		if key.Equals(recipient) {
			recipientIndex = i
			break
		}
	}
	if recipientIndex < 0 {
		return ErrRecipientMismatch
	}

	if recipientIndex >= len(pre) || recipientIndex >= len(post) {
		return ErrRecipientMismatch
	}

	preBalance := pre[recipientIndex]
	postBalance := post[recipientIndex]
	if postBalance <= preBalance || postBalance-preBalance < expected {
		return fmt.Errorf("%w: received %d, expected %d", ErrInsufficientAmount,
			int64(postBalance)-int64(preBalance), expected)
	}
	return nil
}

// checkTokenDelta verifies an SPL token transfer via the recipient-owned
// token account balance difference for the expected mint
func checkTokenDelta(pre, post []rpc.TokenBalance, recipient solana.PublicKey, mint string, expected uint64) error {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return fmt.Errorf("invalid mint address: %w", err)
	}

	preAmounts := make(map[uint16]uint64)
	for _, balance := range pre {
		if balance.Owner != nil && balance.Owner.Equals(recipient) && balance.Mint.Equals(mintKey) {
			preAmounts[balance.AccountIndex] = parseRawAmount(balance.UiTokenAmount)
		}
	}

	found := false
	for _, balance := range post {
		if balance.Owner == nil || !balance.Owner.Equals(recipient) || !balance.Mint.Equals(mintKey) {
			continue
		}
		found = true
		postAmount := parseRawAmount(balance.UiTokenAmount)
		preAmount := preAmounts[balance.AccountIndex]
		if postAmount > preAmount && postAmount-preAmount >= expected {
			return nil
		}
	}

	if !found {
		return ErrRecipientMismatch
	}
	return fmt.Errorf("%w: expected %d base units of %s", ErrInsufficientAmount, expected, mint)
}

func parseRawAmount(amount *rpc.UiTokenAmount) uint64 {
	if amount == nil {
		return 0
	}
	raw, err := strconv.ParseUint(amount.Amount, 10, 64)
	if err != nil {
		return 0
	}
	return raw
}

// GetSOLBalance gets the SOL balance for a wallet
func (s *SolanaClient) GetSOLBalance(ctx context.Context, walletAddress string) (decimal.Decimal, error) {
	pubKey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := s.rpcClient.GetBalance(ctx, pubKey, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	// lamports to SOL
	return decimal.NewFromInt(int64(balance.Value)).Div(decimal.NewFromInt(1_000_000_000)), nil
}

// GetTokenAccountBalance sums the raw token balance across the owner's
// accounts for a mint. No account means a zero balance.
func (s *SolanaClient) GetTokenAccountBalance(ctx context.Context, ownerAddress, mintAddress string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(ownerAddress)
	if err != nil {
		return 0, fmt.Errorf("invalid owner address: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return 0, fmt.Errorf("invalid mint address: %w", err)
	}

	resp, err := s.rpcClient.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{
			Mint: &mint,
		},
		&rpc.GetTokenAccountsOpts{
			Encoding: solana.EncodingBase64,
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var totalBalance uint64
	for _, account := range resp.Value {
		var tokenAccount token.Account
		decoder := bin.NewBinDecoder(account.Account.Data.GetBinary())
		if err := tokenAccount.UnmarshalWithDecoder(decoder); err != nil {
			log.Printf("[SolanaClient] Warning: failed to decode token account data: %v", err)
			continue
		}
		totalBalance += tokenAccount.Amount
	}

	return totalBalance, nil
}
