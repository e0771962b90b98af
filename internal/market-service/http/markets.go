package httpapi

import (
	"net/http"

	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
)

func (s *Server) createMarket(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req dto.CreateMarketRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	m, err := s.eng.CreateMarket(r.Context(), from, req.Question, req.Outcomes, req.ResolutionTime, dto.Address(req.BettingAsset))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) listMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Markets())
}

func (s *Server) marketCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MarketCountResponse{Count: s.eng.MarketCount()})
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	m, err := s.eng.Market(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) listOutcomes(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	m, err := s.eng.Market(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OutcomesResponse{MarketID: id, Length: len(m.Outcomes), Outcomes: m.Outcomes})
}

func (s *Server) getOutcome(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	idx, err := pathIndex(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	label, err := s.eng.Outcome(id, idx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OutcomeResponse{MarketID: id, Index: idx, Label: label})
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	bets, err := s.eng.Bets(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	idx, err := pathIndex(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	b, err := s.eng.Bet(id, idx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req dto.PlaceBetRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := dto.ParseWei(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	b, err := s.eng.PlaceBet(r.Context(), from, id, *req.OutcomeIndex, amount, dto.Address(req.Token))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) crossChainBet(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req dto.CrossChainBetRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := dto.ParseWei(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	b, err := s.eng.SimulateCrossChainCall(r.Context(), from, id, amount, *req.OutcomeIndex, dto.Address(req.User), dto.Address(req.Token))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) resolveMarket(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req dto.ResolveMarketRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	res, err := s.eng.ResolveMarket(r.Context(), from, id, *req.WinningOutcome)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) pendingPayout(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	user, err := pathUser(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	owed, err := s.eng.PendingPayout(id, user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PendingPayoutResponse{MarketID: id, User: user, Pending: owed})
}

// retryPayout não exige caller: o destino é sempre o apostador
func (s *Server) retryPayout(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	user, err := pathUser(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	paid, err := s.eng.RetryPayout(r.Context(), id, user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RetryPayoutResponse{MarketID: id, User: user, Paid: paid})
}
