// Package erc20 define o contrato entre o token-service e seus clientes:
// erros padronizados (com o código enviado no corpo HTTP) e payloads.
package erc20

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CallerHeader carrega a identidade de quem chama (equivalente ao msg.sender).
const CallerHeader = "X-Caller-Address"

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidReceiver       = errors.New("invalid receiver")
	ErrRecipientRejected     = errors.New("recipient rejected transfer")
	ErrInvalidAmount         = errors.New("invalid amount")
)

// Códigos de erro trafegados no campo "error" das respostas.
const (
	CodeInsufficientBalance   = "insufficient_balance"
	CodeInsufficientAllowance = "insufficient_allowance"
	CodeInvalidReceiver       = "invalid_receiver"
	CodeRecipientRejected     = "recipient_rejected"
	CodeInvalidAmount         = "invalid_amount"
)

var codes = map[string]error{
	CodeInsufficientBalance:   ErrInsufficientBalance,
	CodeInsufficientAllowance: ErrInsufficientAllowance,
	CodeInvalidReceiver:       ErrInvalidReceiver,
	CodeRecipientRejected:     ErrRecipientRejected,
	CodeInvalidAmount:         ErrInvalidAmount,
}

// CodeOf retorna o código do erro, ou "" se não for um erro de token conhecido.
func CodeOf(err error) string {
	for code, target := range codes {
		if errors.Is(err, target) {
			return code
		}
	}
	return ""
}

// ErrorOf é o inverso de CodeOf.
func ErrorOf(code string) (error, bool) {
	err, ok := codes[code]
	return err, ok
}

type TransferRequest struct {
	Token  common.Address `json:"token"`
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

type TransferFromRequest struct {
	Token  common.Address `json:"token"`
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

type ApproveRequest struct {
	Token   common.Address `json:"token"`
	Spender common.Address `json:"spender"`
	Amount  *big.Int       `json:"amount"`
}

type MintRequest struct {
	Token  common.Address `json:"token"`
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

type BalanceResponse struct {
	Token   common.Address `json:"token"`
	Account common.Address `json:"account"`
	Balance *big.Int       `json:"balance"`
}

type AllowanceResponse struct {
	Token     common.Address `json:"token"`
	Owner     common.Address `json:"owner"`
	Spender   common.Address `json:"spender"`
	Allowance *big.Int       `json:"allowance"`
}

// RejectRequest liga/desliga a recusa de recebimento de uma conta (ambiente de dev).
type RejectRequest struct {
	Account common.Address `json:"account"`
	Reject  bool           `json:"reject"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
