package http

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

// Repo define as operações do ledger usadas pelo handler HTTP
type Repo interface {
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error
	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error
	Mint(ctx context.Context, token, to common.Address, amount *big.Int) (*big.Int, error)
	SetRejecting(ctx context.Context, account common.Address, reject bool) error
}

// Server expõe o ledger ERC-20 via HTTP. Quem assina cada chamada vem do header de identidade.
type Server struct {
	log       *zap.Logger
	repo      Repo
	devRoutes bool // mint e recusa de recebimento, só fora de produção
}

// NewServer instancia o servidor HTTP do token-service
func NewServer(log *zap.Logger, repo Repo, devRoutes bool) *Server {
	return &Server{log: log, repo: repo, devRoutes: devRoutes}
}

// Router retorna o mux HTTP com as rotas do ledger
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /token/balance", s.balanceOf)           // ?token=&account=
	mux.HandleFunc("GET /token/allowance", s.allowance)         // ?token=&owner=&spender=
	mux.HandleFunc("POST /token/approve", s.approve)            // caller = owner
	mux.HandleFunc("POST /token/transfer", s.transfer)          // caller = from
	mux.HandleFunc("POST /token/transfer-from", s.transferFrom) // caller = spender
	if s.devRoutes {
		mux.HandleFunc("POST /token/mint", s.mint)
		mux.HandleFunc("POST /token/reject", s.reject)
	}
	return mux
}

func (s *Server) balanceOf(w http.ResponseWriter, r *http.Request) {
	token, ok1 := queryAddress(r, "token")
	account, ok2 := queryAddress(r, "account")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "bad_request", "token and account required")
		return
	}
	bal, err := s.repo.BalanceOf(r.Context(), token, account)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, erc20.BalanceResponse{Token: token, Account: account, Balance: bal})
}

func (s *Server) allowance(w http.ResponseWriter, r *http.Request) {
	token, ok1 := queryAddress(r, "token")
	owner, ok2 := queryAddress(r, "owner")
	spender, ok3 := queryAddress(r, "spender")
	if !ok1 || !ok2 || !ok3 {
		writeError(w, http.StatusBadRequest, "bad_request", "token, owner and spender required")
		return
	}
	amt, err := s.repo.Allowance(r.Context(), token, owner, spender)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, erc20.AllowanceResponse{Token: token, Owner: owner, Spender: spender, Allowance: amt})
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	owner, ok := caller(w, r)
	if !ok {
		return
	}
	var req erc20.ApproveRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.repo.Approve(r.Context(), req.Token, owner, req.Spender, req.Amount); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, erc20.AllowanceResponse{Token: req.Token, Owner: owner, Spender: req.Spender, Allowance: req.Amount})
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req erc20.TransferRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.repo.Transfer(r.Context(), req.Token, from, req.To, req.Amount); err != nil {
		s.fail(w, err)
		return
	}
	s.log.Info("transfer", zap.String("token", req.Token.Hex()), zap.String("from", from.Hex()), zap.String("to", req.To.Hex()), zap.String("amount", req.Amount.String()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

func (s *Server) transferFrom(w http.ResponseWriter, r *http.Request) {
	spender, ok := caller(w, r)
	if !ok {
		return
	}
	var req erc20.TransferFromRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.repo.TransferFrom(r.Context(), req.Token, spender, req.From, req.To, req.Amount); err != nil {
		s.fail(w, err)
		return
	}
	s.log.Info("transferFrom", zap.String("token", req.Token.Hex()), zap.String("spender", spender.Hex()), zap.String("from", req.From.Hex()), zap.String("to", req.To.Hex()), zap.String("amount", req.Amount.String()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

// mint credita tokens novos (faucet de dev)
func (s *Server) mint(w http.ResponseWriter, r *http.Request) {
	var req erc20.MintRequest
	if !decode(w, r, &req) {
		return
	}
	bal, err := s.repo.Mint(r.Context(), req.Token, req.To, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, erc20.BalanceResponse{Token: req.Token, Account: req.To, Balance: bal})
}

// reject simula um destinatário que recusa recebimentos
func (s *Server) reject(w http.ResponseWriter, r *http.Request) {
	var req erc20.RejectRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.repo.SetRejecting(r.Context(), req.Account, req.Reject); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// fail traduz os erros do ledger para o código enviado ao cliente
func (s *Server) fail(w http.ResponseWriter, err error) {
	code := erc20.CodeOf(err)
	switch code {
	case "":
		s.log.Error("token ledger failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	case erc20.CodeInvalidAmount, erc20.CodeInvalidReceiver:
		writeError(w, http.StatusBadRequest, code, err.Error())
	default:
		writeError(w, http.StatusUnprocessableEntity, code, err.Error())
	}
}

func caller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	h := r.Header.Get(erc20.CallerHeader)
	if !common.IsHexAddress(h) {
		writeError(w, http.StatusBadRequest, "bad_request", erc20.CallerHeader+" header required")
		return common.Address{}, false
	}
	return common.HexToAddress(h), true
}

func queryAddress(r *http.Request, name string) (common.Address, bool) {
	v := r.URL.Query().Get(name)
	if !common.IsHexAddress(v) {
		return common.Address{}, false
	}
	return common.HexToAddress(v), true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "bad json")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, erc20.ErrorResponse{Error: code, Message: msg})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
