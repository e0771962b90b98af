package engine

import (
	"errors"
	"fmt"
)

// Categorias de erro. Toda falha de um entry point embrulha uma delas (%w),
// então chamadores usam errors.Is com a categoria ou com o erro específico.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAlreadyResolved     = errors.New("market already resolved")
	ErrMarketExpired       = errors.New("market expired")
	ErrMarketNotYetExpired = errors.New("market not yet expired")
	ErrTransferFailed      = errors.New("external transfer failed")
	ErrNothingOwed         = errors.New("nothing owed")
)

var (
	ErrEmptyQuestion     = fmt.Errorf("%w: question must not be empty", ErrValidation)
	ErrTooFewOutcomes    = fmt.Errorf("%w: at least two outcomes required", ErrValidation)
	ErrEmptyOutcome      = fmt.Errorf("%w: outcome label must not be empty", ErrValidation)
	ErrResolutionInPast  = fmt.Errorf("%w: resolution time must be in the future", ErrValidation)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidOutcome    = fmt.Errorf("%w: invalid outcome index", ErrValidation)
	ErrAssetMismatch     = fmt.Errorf("%w: token does not match market betting asset", ErrValidation)
	ErrZeroAddress       = fmt.Errorf("%w: zero address", ErrValidation)
	ErrInsufficientStake = fmt.Errorf("%w: insufficient staked balance", ErrValidation)
	ErrMarketNotFound    = fmt.Errorf("%w: market", ErrNotFound)
)

// transferError embrulha a falha do token-service preservando o erro original.
func transferError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransferFailed, err)
}

// Code converte um erro do engine em um código estável para a API.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, ErrMarketExpired):
		return "market_expired"
	case errors.Is(err, ErrMarketNotYetExpired):
		return "market_not_yet_expired"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrNothingOwed):
		return "nothing_owed"
	default:
		return "internal_error"
	}
}

var byCode = map[string]error{
	"validation_error":       ErrValidation,
	"not_found":              ErrNotFound,
	"index_out_of_range":     ErrIndexOutOfRange,
	"unauthorized":           ErrUnauthorized,
	"already_resolved":       ErrAlreadyResolved,
	"market_expired":         ErrMarketExpired,
	"market_not_yet_expired": ErrMarketNotYetExpired,
	"transfer_failed":        ErrTransferFailed,
	"nothing_owed":           ErrNothingOwed,
}

// ErrorOf é o inverso de Code para clientes da API.
func ErrorOf(code string) (error, bool) {
	err, ok := byCode[code]
	return err, ok
}
