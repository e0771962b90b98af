package dto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Valores em wei trafegam como string decimal para não perder precisão.

type CreateMarketRequest struct {
	Question       string   `json:"question"`
	Outcomes       []string `json:"outcomes"`
	ResolutionTime int64    `json:"resolution_time" validate:"required"`
	BettingAsset   string   `json:"betting_asset" validate:"omitempty,eth_addr"`
}

func (r *CreateMarketRequest) Validate() error { return validate.Struct(r) }

type PlaceBetRequest struct {
	OutcomeIndex *int   `json:"outcome_index" validate:"required"`
	Amount       string `json:"amount" validate:"required,number"`
	Token        string `json:"token" validate:"required,eth_addr"`
}

func (r *PlaceBetRequest) Validate() error { return validate.Struct(r) }

// CrossChainBetRequest é a aposta retransmitida pelo owner em nome de User.
type CrossChainBetRequest struct {
	User         string `json:"user" validate:"required,eth_addr"`
	OutcomeIndex *int   `json:"outcome_index" validate:"required"`
	Amount       string `json:"amount" validate:"required,number"`
	Token        string `json:"token" validate:"required,eth_addr"`
}

func (r *CrossChainBetRequest) Validate() error { return validate.Struct(r) }

type ResolveMarketRequest struct {
	WinningOutcome *int `json:"winning_outcome" validate:"required"`
}

func (r *ResolveMarketRequest) Validate() error { return validate.Struct(r) }

type StakeRequest struct {
	Amount string `json:"amount" validate:"required,number"`
	Token  string `json:"token" validate:"required,eth_addr"`
}

func (r *StakeRequest) Validate() error { return validate.Struct(r) }

type WithdrawFeesRequest struct {
	Token string `json:"token" validate:"required,eth_addr"`
	To    string `json:"to" validate:"required,eth_addr"`
}

func (r *WithdrawFeesRequest) Validate() error { return validate.Struct(r) }

type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner" validate:"required,eth_addr"`
}

func (r *TransferOwnershipRequest) Validate() error { return validate.Struct(r) }

// ParseWei converte a string decimal (ou 0x) validada em *big.Int de até 256 bits.
func ParseWei(s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// Address converte um endereço já validado; vazio vira o endereço zero.
func Address(s string) common.Address {
	if s == "" {
		return common.Address{}
	}
	return common.HexToAddress(s)
}
