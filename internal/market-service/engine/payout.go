package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Payout é uma transferência da custódia para um apostador.
type Payout struct {
	BetIndex int            `json:"bet_index"`
	User     common.Address `json:"user"`
	Amount   *big.Int       `json:"amount"`
	Refund   bool           `json:"refund"`
	Reason   string         `json:"reason,omitempty"`
}

// Settlement é o plano de distribuição de um mercado resolvido.
type Settlement struct {
	WinningPool *big.Int
	LosingPool  *big.Int
	Payouts     []Payout
	Residual    *big.Int // poeira da divisão ou pool retido
}

// PayoutFor calcula stake + stake*losingPool/winningPool com divisão truncada.
func PayoutFor(stake, winningPool, losingPool *big.Int) *big.Int {
	if winningPool.Sign() == 0 {
		return new(big.Int)
	}
	share := new(big.Int).Mul(stake, losingPool)
	share.Quo(share, winningPool)
	return share.Add(share, stake)
}

// Settle particiona as apostas em vencedoras/perdedoras e monta o plano.
// Os valores dependem apenas dos totais dos pools, nunca da ordem das apostas;
// a ordem das apostas define só a sequência do plano.
func Settle(bets []Bet, winning int, policy ZeroWinnerPolicy) Settlement {
	s := Settlement{
		WinningPool: new(big.Int),
		LosingPool:  new(big.Int),
		Residual:    new(big.Int),
	}
	for _, b := range bets {
		if b.OutcomeIndex == winning {
			s.WinningPool.Add(s.WinningPool, b.Amount)
		} else {
			s.LosingPool.Add(s.LosingPool, b.Amount)
		}
	}

	if s.WinningPool.Sign() == 0 {
		if policy == ZeroWinnerRefund {
			for i, b := range bets {
				s.Payouts = append(s.Payouts, Payout{BetIndex: i, User: b.User, Amount: new(big.Int).Set(b.Amount), Refund: true})
			}
			return s
		}
		s.Residual.Set(s.LosingPool)
		return s
	}

	distributed := new(big.Int)
	for i, b := range bets {
		if b.OutcomeIndex != winning {
			continue
		}
		amt := PayoutFor(b.Amount, s.WinningPool, s.LosingPool)
		distributed.Add(distributed, amt)
		s.Payouts = append(s.Payouts, Payout{BetIndex: i, User: b.User, Amount: amt})
	}
	s.Residual.Add(s.WinningPool, s.LosingPool)
	s.Residual.Sub(s.Residual, distributed)
	return s
}
