package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bnema/lumiere-ledger/internal/application"
	"github.com/bnema/lumiere-ledger/internal/domain"
)

type tokenRequest struct {
	Specialty  string  `json:"specialty"`
	Owner      string  `json:"owner"`
	Price      float64 `json:"price"`
	SellerHint string  `json:"seller_hint"`
	Hours      int     `json:"hours"`
	Signal     int     `json:"signal"`
}

type interactionRequest struct {
	Specialty string `json:"specialty"`
	MessageID string `json:"message_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Signal    int    `json:"signal"`
}

type ratingRequest struct {
	MessageID string `json:"message_id"`
	Specialty string `json:"specialty"`
	Value     int    `json:"value"`
}

func decode(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return domain.Validationf("invalid json: %v", err)
	}
	return nil
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	who := identityFrom(r.Context())
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		owner = who.ActorID
	}

	token, err := s.svc.Market.Mint(r.Context(), application.MintCommand{Specialty: req.Specialty, Owner: owner, Tenant: who.TenantID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	who := identityFrom(r.Context())
	token, err := s.svc.Market.List(r.Context(), application.ListCommand{
		Specialty: req.Specialty,
		Seller:    who.ActorID,
		Tenant:    who.TenantID,
		Price:     req.Price,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	who := identityFrom(r.Context())
	token, err := s.svc.Market.Buy(r.Context(), application.BuyCommand{
		Specialty:  req.Specialty,
		Buyer:      who.ActorID,
		Tenant:     who.TenantID,
		SellerHint: req.SellerHint,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleRent(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	who := identityFrom(r.Context())
	result, err := s.svc.Market.Rent(r.Context(), application.RentCommand{
		Specialty: req.Specialty,
		Renter:    who.ActorID,
		Tenant:    who.TenantID,
		Hours:     req.Hours,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	who := identityFrom(r.Context())
	token, err := s.svc.Market.Train(r.Context(), application.TrainCommand{
		Specialty: req.Specialty,
		Actor:     who.ActorID,
		Signal:    req.Signal,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Market.Marketplace(r.Context(), identityFrom(r.Context()).TenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Market.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Market.VerifyChain(r.Context())
	switch {
	case errors.Is(err, domain.ErrChainCorrupted):
		writeJSON(w, http.StatusConflict, report)
	case err != nil:
		writeError(w, err)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	messageID := strings.TrimSpace(req.MessageID)
	if messageID == "" && s.svc.MessageID != nil {
		messageID = s.svc.MessageID()
	}

	who := identityFrom(r.Context())
	result, err := s.svc.Feedback.RecordInteraction(r.Context(), application.InteractionCommand{
		Specialty: req.Specialty,
		Actor:     who.ActorID,
		MessageID: messageID,
		Question:  req.Question,
		Answer:    req.Answer,
		Signal:    req.Signal,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	who := identityFrom(r.Context())
	result, err := s.svc.Feedback.Rate(r.Context(), application.RateCommand{
		MessageID: req.MessageID,
		Specialty: req.Specialty,
		Actor:     who.ActorID,
		Value:     req.Value,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
