package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryLedger_RegisterDuplicate(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.RegisterUser(ctx, "John Doe", "john@example.com", "3234567890"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := l.RegisterUser(ctx, "John Doe", "john@example.com", "3234567890"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected already registered, got %v", err)
	}
}

func TestInMemoryLedger_ConcurrentRegisterSameIdentity(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	const workers = 10
	results := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.RegisterUser(ctx, "John Doe", "john@example.com", "3234567890")
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
		} else if !errors.Is(err, ErrAlreadyRegistered) {
			t.Fatalf("unexpected register error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one created user, got %d", created)
	}
}

func TestInMemoryLedger_IssueAssignsSequentialIDs(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.RegisterUser(ctx, "John Doe", "john@example.com", "3234567890"); err != nil {
		t.Fatalf("register: %v", err)
	}

	first, err := l.IssueToken(ctx, "3234567890")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first token id 1, got %d", first)
	}

	second, err := l.IssueToken(ctx, "3234567890")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if second <= first {
		t.Fatalf("expected monotonic ids, got %d then %d", first, second)
	}

	user, err := l.GetUserInfo(ctx, "3234567890", "john@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(user.TokenIDs) != 2 || user.TokenIDs[0] != first || user.TokenIDs[1] != second {
		t.Fatalf("unexpected token ids: %v", user.TokenIDs)
	}
}

func TestInMemoryLedger_IssueUnknownUser(t *testing.T) {
	l := NewInMemory()

	if _, err := l.IssueToken(context.Background(), "0000000000"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected unknown user, got %v", err)
	}
}

func TestInMemoryLedger_RedeemIsOneWay(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.RegisterUser(ctx, "John Doe", "john@example.com", "3234567890"); err != nil {
		t.Fatalf("register: %v", err)
	}
	id, err := l.IssueToken(ctx, "3234567890")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := l.RedeemToken(ctx, id); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if err := l.RedeemToken(ctx, id); !errors.Is(err, ErrAlreadyRedeemed) {
		t.Fatalf("expected already redeemed, got %v", err)
	}

	token, err := l.GetTokenInfo(ctx, id)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if !token.Redeemed {
		t.Fatalf("expected redeemed flag set after redeem")
	}
	if token.OwnerPhone != "3234567890" {
		t.Fatalf("unexpected owner phone %q", token.OwnerPhone)
	}
}

func TestInMemoryLedger_ConcurrentRedeemFirstWriterWins(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.RegisterUser(ctx, "John Doe", "john@example.com", "3234567890"); err != nil {
		t.Fatalf("register: %v", err)
	}
	id, err := l.IssueToken(ctx, "3234567890")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const workers = 10
	results := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.RedeemToken(ctx, id)
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
		} else if !errors.Is(err, ErrAlreadyRedeemed) {
			t.Fatalf("unexpected redeem error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one winning redeem, got %d", won)
	}
}

func TestInMemoryLedger_RedeemUnknownToken(t *testing.T) {
	l := NewInMemory()

	if err := l.RedeemToken(context.Background(), 404); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected unknown token, got %v", err)
	}
}

func TestCountingLedger(t *testing.T) {
	counting := NewCounting(NewInMemory())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		phone := fmt.Sprintf("555000%d", i)
		if err := counting.RegisterUser(ctx, "User", fmt.Sprintf("u%d@example.com", i), phone); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	if got := counting.Calls("RegisterUser"); got != 3 {
		t.Fatalf("expected 3 register calls, got %d", got)
	}
	if got := counting.Total(); got != 3 {
		t.Fatalf("expected 3 total calls, got %d", got)
	}
}
