package engine

import (
	"errors"
	"math/big"
	"testing"

	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

func TestResolveMarket_EndToEnd(t *testing.T) {
	f := newFixture(t, nil)
	m := f.market("Yes", "No")

	f.bet(alice, m.ID, 0, 10)
	f.bet(bob, m.ID, 1, 10)
	aliceBefore, bobBefore := f.balance(alice, zeta), f.balance(bob, zeta)

	f.expire(m.ID)
	res, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 0)
	if err != nil {
		t.Fatalf("ResolveMarket failed: %v", err)
	}

	if got := f.balance(alice, zeta) - aliceBefore; got != 20 {
		t.Errorf("Expected alice to gain 20, got %d", got)
	}
	if got := f.balance(bob, zeta) - bobBefore; got != 0 {
		t.Errorf("Expected bob to gain nothing, got %d", got)
	}
	if res.WinningPool.Int64() != 10 || res.LosingPool.Int64() != 10 || len(res.Paid) != 1 || len(res.Failed) != 0 {
		t.Errorf("Unexpected resolution: %+v", res)
	}

	snap, _ := f.eng.Market(m.ID)
	if !snap.Resolved || snap.WinningOutcome != 0 {
		t.Errorf("Expected resolved with outcome 0, got %+v", snap)
	}
	// só as taxas ficam em custódia
	if got := f.balance(custody, zeta); got != 2*fee {
		t.Errorf("Expected custody to keep %d in fees, got %d", 2*fee, got)
	}
	f.checkCustody(zeta)
}

func TestResolveMarket_ProportionalPayout(t *testing.T) {
	f := newFixture(t, nil)
	m := f.market("Yes", "No")

	f.bet(alice, m.ID, 0, 2)
	f.bet(bob, m.ID, 0, 3)
	f.bet(carol, m.ID, 1, 5)

	f.expire(m.ID)
	res, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 0)
	if err != nil {
		t.Fatalf("ResolveMarket failed: %v", err)
	}

	if got := f.balance(alice, zeta); got != 4 {
		t.Errorf("Expected alice payout 4, got %d", got)
	}
	if got := f.balance(bob, zeta); got != 6 {
		t.Errorf("Expected bob payout 6, got %d", got)
	}
	if got := f.balance(carol, zeta); got != 0 {
		t.Errorf("Expected carol payout 0, got %d", got)
	}
	if res.Residual.Sign() != 0 {
		t.Errorf("Expected no dust, got %s", res.Residual)
	}
}

func TestResolveMarket_DustStaysInCustody(t *testing.T) {
	f := newFixture(t, nil)
	m := f.market("A", "B", "C")

	f.bet(alice, m.ID, 0, 1)
	f.bet(bob, m.ID, 0, 2)
	f.bet(carol, m.ID, 2, 2)

	f.expire(m.ID)
	res, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 0)
	if err != nil {
		t.Fatalf("ResolveMarket failed: %v", err)
	}
	// 1 + 1*2/3 = 1 ; 2 + 2*2/3 = 3 ; distribuído 4 de 5
	if f.balance(alice, zeta) != 1 || f.balance(bob, zeta) != 3 {
		t.Errorf("Unexpected payouts alice=%d bob=%d", f.balance(alice, zeta), f.balance(bob, zeta))
	}
	if res.Residual.Int64() != 1 {
		t.Errorf("Expected residual 1, got %s", res.Residual)
	}
	snap, _ := f.eng.Market(m.ID)
	if snap.Residual.Int64() != 1 {
		t.Errorf("Expected market residual 1, got %s", snap.Residual)
	}
	f.checkCustody(zeta)
}

func TestResolveMarket_ExactlyOnce(t *testing.T) {
	f := newFixture(t, nil)
	m := f.market()
	f.bet(alice, m.ID, 0, 10)
	f.expire(m.ID)

	if _, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 0); err != nil {
		t.Fatalf("first ResolveMarket failed: %v", err)
	}
	emitted := len(f.sink.got)
	balance := f.balance(alice, zeta)

	_, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 1)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("Expected ErrAlreadyResolved, got %v", err)
	}
	snap, _ := f.eng.Market(m.ID)
	if !snap.Resolved || snap.WinningOutcome != 0 {
		t.Errorf("Second call changed the market: %+v", snap)
	}
	if len(f.sink.got) != emitted || f.balance(alice, zeta) != balance {
		t.Error("Second call must not emit events nor move tokens")
	}
}

func TestResolveMarket_Preconditions(t *testing.T) {
	f := newFixture(t, nil)
	m := f.market()

	if _, err := f.eng.ResolveMarket(f.ctx, alice, m.ID, 0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.eng.ResolveMarket(f.ctx, owner, 42, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 0); !errors.Is(err, ErrMarketNotYetExpired) {
		t.Errorf("Expected ErrMarketNotYetExpired, got %v", err)
	}
	f.expire(m.ID)
	if _, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 2); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("Expected ErrInvalidOutcome, got %v", err)
	}
	snap, _ := f.eng.Market(m.ID)
	if snap.Resolved {
		t.Error("Rejected resolutions must not resolve the market")
	}
}

func TestResolveMarket_EarlyResolutionPolicy(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.AllowEarlyResolution = true })
	m := f.market()
	if _, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 1); err != nil {
		t.Fatalf("Expected early resolution to be allowed: %v", err)
	}
}

func TestResolveMarket_ZeroWinners(t *testing.T) {
	tests := []struct {
		name         string
		policy       ZeroWinnerPolicy
		wantAlice    int64
		wantBob      int64
		wantResidual int64
	}{
		{"retain", ZeroWinnerRetain, 0, 0, 12},
		{"refund", ZeroWinnerRefund, 5, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(c *Config) { c.ZeroWinnerPolicy = tt.policy })
			m := f.market("A", "B", "C")
			f.bet(alice, m.ID, 0, 5)
			f.bet(bob, m.ID, 1, 7)
			f.expire(m.ID)

			res, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 2)
			if err != nil {
				t.Fatalf("ResolveMarket failed: %v", err)
			}
			if res.WinningPool.Sign() != 0 || res.LosingPool.Int64() != 12 {
				t.Errorf("Unexpected pools: %+v", res)
			}
			if got := f.balance(alice, zeta); got != tt.wantAlice {
				t.Errorf("alice: got %d, want %d", got, tt.wantAlice)
			}
			if got := f.balance(bob, zeta); got != tt.wantBob {
				t.Errorf("bob: got %d, want %d", got, tt.wantBob)
			}
			if got := res.Residual.Int64(); got != tt.wantResidual {
				t.Errorf("residual: got %d, want %d", got, tt.wantResidual)
			}
			if got := f.balance(custody, zeta); got != tt.wantResidual+2*fee {
				t.Errorf("custody: got %d, want %d", got, tt.wantResidual+2*fee)
			}
			f.checkCustody(zeta)
		})
	}
}

func TestResolveMarket_FailedPayoutDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t, nil)
	m := f.market()
	f.bet(alice, m.ID, 0, 2)
	f.bet(bob, m.ID, 0, 3)
	f.bet(carol, m.ID, 1, 5)
	f.tokens.Reject(alice)
	f.expire(m.ID)

	res, err := f.eng.ResolveMarket(f.ctx, owner, m.ID, 0)
	if err != nil {
		t.Fatalf("ResolveMarket failed: %v", err)
	}
	if len(res.Paid) != 1 || len(res.Failed) != 1 {
		t.Fatalf("Expected 1 paid and 1 failed, got %+v", res)
	}
	if got := f.balance(bob, zeta); got != 6 {
		t.Errorf("Expected bob paid 6, got %d", got)
	}
	owed, _ := f.eng.PendingPayout(m.ID, alice)
	if owed.Int64() != 4 {
		t.Errorf("Expected 4 pending for alice, got %s", owed)
	}

	var failed *events.PayoutFailed
	for _, r := range f.sink.got {
		if ev, ok := r.Event.(events.PayoutFailed); ok {
			failed = &ev
		}
	}
	if failed == nil || failed.User != alice || failed.Amount.Int64() != 4 {
		t.Fatalf("Expected PayoutFailed for alice, got %+v", failed)
	}
	f.checkCustody(zeta)

	if _, err := f.eng.RetryPayout(f.ctx, m.ID, alice); !errors.Is(err, ErrTransferFailed) || !errors.Is(err, erc20.ErrRecipientRejected) {
		t.Fatalf("Expected transfer failure while still rejecting, got %v", err)
	}
	f.tokens.Accept(alice)
	paid, err := f.eng.RetryPayout(f.ctx, m.ID, alice)
	if err != nil {
		t.Fatalf("RetryPayout failed: %v", err)
	}
	if paid.Int64() != 4 || f.balance(alice, zeta) != 4 {
		t.Errorf("Expected alice paid 4, got %s (balance %d)", paid, f.balance(alice, zeta))
	}
	if _, err := f.eng.RetryPayout(f.ctx, m.ID, alice); !errors.Is(err, ErrNothingOwed) {
		t.Errorf("Expected ErrNothingOwed after retry, got %v", err)
	}
	f.checkCustody(zeta)
}

func TestResolveMarket_ConservationAcrossMarkets(t *testing.T) {
	f := newFixture(t, nil)
	first := f.market("A", "B")
	second := f.market("A", "B", "C")

	f.bet(alice, first.ID, 0, 7)
	f.bet(bob, first.ID, 1, 13)
	f.bet(carol, first.ID, 0, 9)
	f.bet(alice, second.ID, 2, 11)
	f.bet(bob, second.ID, 1, 4)

	f.expire(second.ID)
	for _, id := range []uint64{first.ID, second.ID} {
		res, err := f.eng.ResolveMarket(f.ctx, owner, id, 0)
		if err != nil {
			t.Fatalf("ResolveMarket(%d) failed: %v", id, err)
		}
		total := new(big.Int)
		for _, p := range res.Paid {
			total.Add(total, p.Amount)
		}
		pools := new(big.Int).Add(res.WinningPool, res.LosingPool)
		if total.Cmp(pools) > 0 {
			t.Errorf("market %d paid %s out of %s", id, total, pools)
		}
		if new(big.Int).Add(total, res.Residual).Cmp(pools) != 0 {
			t.Errorf("market %d: paid %s + residual %s != pools %s", id, total, res.Residual, pools)
		}
	}
	f.checkCustody(zeta)
}
