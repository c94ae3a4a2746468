package ledger

import (
	"context"
	"sync"
	"time"
)

// SeedToken is a test helper that plants a token directly into the in-memory
// ledger, bypassing issuance.
func SeedToken(l Ledger, token TokenRecord) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if token.CreatedAt.IsZero() {
			token.CreatedAt = time.Now().UTC()
		}
		mem.tokens[token.ID] = token
		if token.ID >= mem.nextID {
			mem.nextID = token.ID + 1
		}
	}
}

// CountingLedger wraps a Ledger and counts calls per operation. Tests use it
// to prove that rejected requests never reach the ledger at all.
type CountingLedger struct {
	Ledger

	mu    sync.Mutex
	calls map[string]int
}

// NewCounting wraps the provided ledger with call counting.
func NewCounting(inner Ledger) *CountingLedger {
	return &CountingLedger{Ledger: inner, calls: make(map[string]int)}
}

// Calls reports how many times the named operation was invoked.
func (c *CountingLedger) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Total reports the number of ledger calls across all operations.
func (c *CountingLedger) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *CountingLedger) record(op string) {
	c.mu.Lock()
	c.calls[op]++
	c.mu.Unlock()
}

func (c *CountingLedger) RegisterUser(ctx context.Context, name, email, phone string) error {
	c.record("RegisterUser")
	return c.Ledger.RegisterUser(ctx, name, email, phone)
}

func (c *CountingLedger) IssueToken(ctx context.Context, phone string) (int64, error) {
	c.record("IssueToken")
	return c.Ledger.IssueToken(ctx, phone)
}

func (c *CountingLedger) RedeemToken(ctx context.Context, tokenID int64) error {
	c.record("RedeemToken")
	return c.Ledger.RedeemToken(ctx, tokenID)
}

func (c *CountingLedger) GetUserInfo(ctx context.Context, phone, email string) (UserRecord, error) {
	c.record("GetUserInfo")
	return c.Ledger.GetUserInfo(ctx, phone, email)
}

func (c *CountingLedger) GetUserByPhone(ctx context.Context, phone string) (UserRecord, error) {
	c.record("GetUserByPhone")
	return c.Ledger.GetUserByPhone(ctx, phone)
}

func (c *CountingLedger) GetTokenInfo(ctx context.Context, tokenID int64) (TokenRecord, error) {
	c.record("GetTokenInfo")
	return c.Ledger.GetTokenInfo(ctx, tokenID)
}
