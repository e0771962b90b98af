package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
	"github.com/radieske/prediction-market-poc/internal/market-service/engine"
	"github.com/radieske/prediction-market-poc/pkg/contracts/erc20"
)

var errCaller = errors.New("missing or invalid " + erc20.CallerHeader + " header")

// Server expõe o engine de mercados via REST
type Server struct {
	log *zap.Logger
	eng *engine.Engine
}

func NewServer(log *zap.Logger, eng *engine.Engine) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, eng: eng}
}

// Router retorna o roteador HTTP com os endpoints do engine
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/markets", func(r chi.Router) {
		r.Post("/", s.createMarket)
		r.Get("/", s.listMarkets)
		r.Get("/count", s.marketCount)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getMarket)
			r.Get("/outcomes", s.listOutcomes)
			r.Get("/outcomes/{index}", s.getOutcome)
			r.Get("/bets", s.listBets)
			r.Get("/bets/{index}", s.getBet)
			r.Post("/bets", s.placeBet)
			r.Post("/cross-chain-bets", s.crossChainBet)
			r.Post("/resolve", s.resolveMarket)
			r.Get("/payouts/{user}", s.pendingPayout)
			r.Post("/payouts/{user}/retry", s.retryPayout)
		})
	})

	r.Post("/stakes", s.stake)
	r.Post("/stakes/withdraw", s.withdrawStake)
	r.Get("/stakes/{user}", s.getStake)

	r.Get("/fees", s.getFees)
	r.Post("/fees/withdraw", s.withdrawFees)

	r.Get("/config", s.getConfig)
	r.Get("/owner", s.getOwner)
	r.Post("/owner/transfer", s.transferOwnership)
	r.Post("/owner/renounce", s.renounceOwnership)

	r.Get("/events", s.listEvents)
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad_request", Message: err.Error()})
}

// writeError traduz o código do engine para o status HTTP
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := engine.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case "validation_error":
		status = http.StatusBadRequest
	case "unauthorized":
		status = http.StatusForbidden
	case "not_found", "index_out_of_range":
		status = http.StatusNotFound
	case "already_resolved", "market_expired", "market_not_yet_expired", "nothing_owed":
		status = http.StatusConflict
	case "transfer_failed":
		status = http.StatusUnprocessableEntity
	default:
		s.log.Error("unexpected engine error", zap.Error(err))
	}
	writeJSON(w, status, dto.ErrorResponse{Error: code, Message: err.Error()})
}

func caller(r *http.Request) (common.Address, error) {
	h := r.Header.Get(erc20.CallerHeader)
	if !common.IsHexAddress(h) {
		return common.Address{}, errCaller
	}
	return common.HexToAddress(h), nil
}

func marketID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func pathIndex(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "index"))
}

func pathUser(r *http.Request) (common.Address, error) {
	u := chi.URLParam(r, "user")
	if !common.IsHexAddress(u) {
		return common.Address{}, errors.New("invalid user address")
	}
	return common.HexToAddress(u), nil
}

// decode lê o corpo e roda as validações de formato do DTO
func decode[T interface{ Validate() error }](r *http.Request, req T) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return errors.New("bad json")
	}
	return req.Validate()
}
