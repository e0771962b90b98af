package httpapi

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
)

func (s *Server) stake(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req dto.StakeRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := dto.ParseWei(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	token := dto.Address(req.Token)
	staked, err := s.eng.StakeTokens(r.Context(), from, amount, token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StakeResponse{User: from, Token: token, Staked: staked})
}

func (s *Server) withdrawStake(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req dto.StakeRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := dto.ParseWei(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	token := dto.Address(req.Token)
	staked, err := s.eng.WithdrawStake(r.Context(), from, amount, token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StakeResponse{User: from, Token: token, Staked: staked})
}

func (s *Server) getStake(w http.ResponseWriter, r *http.Request) {
	user, err := pathUser(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	token := s.tokenParam(r)
	writeJSON(w, http.StatusOK, dto.StakeResponse{User: user, Token: token, Staked: s.eng.StakeOf(user, token)})
}

func (s *Server) getFees(w http.ResponseWriter, r *http.Request) {
	token := s.tokenParam(r)
	writeJSON(w, http.StatusOK, dto.FeesResponse{Token: token, Accrued: s.eng.FeesAccrued(token), Holdings: s.eng.Holdings(token)})
}

func (s *Server) withdrawFees(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req dto.WithdrawFeesRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	token, to := dto.Address(req.Token), dto.Address(req.To)
	amount, err := s.eng.WithdrawFees(r.Context(), from, token, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FeesWithdrawnResponse{Token: token, To: to, Amount: amount})
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.eng.Settings()
	writeJSON(w, http.StatusOK, dto.ConfigResponse{
		Owner:                cfg.Owner,
		Custody:              cfg.Custody,
		BettingToken:         cfg.BettingToken,
		BetFee:               cfg.BetFee,
		ZeroWinnerPolicy:     string(cfg.ZeroWinnerPolicy),
		AllowEarlyResolution: cfg.AllowEarlyResolution,
		OpenMarketCreation:   cfg.OpenMarketCreation,
	})
}

func (s *Server) getOwner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.OwnerResponse{Owner: s.eng.Owner()})
}

func (s *Server) transferOwnership(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req dto.TransferOwnershipRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.eng.TransferOwnership(r.Context(), from, dto.Address(req.NewOwner)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OwnerResponse{Owner: s.eng.Owner()})
}

func (s *Server) renounceOwnership(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.eng.RenounceOwnership(r.Context(), from); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OwnerResponse{Owner: s.eng.Owner()})
}

// listEvents devolve o log a partir de ?from= (default 1)
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	var from uint64
	if v := r.URL.Query().Get("from"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		from = n
	}
	recs := s.eng.Events(from)
	out := make([]dto.EventResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, dto.Event(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// tokenParam lê ?token=; sem ele vale o token padrão de apostas
func (s *Server) tokenParam(r *http.Request) common.Address {
	if t := r.URL.Query().Get("token"); common.IsHexAddress(t) {
		return common.HexToAddress(t)
	}
	return s.eng.BettingToken()
}
