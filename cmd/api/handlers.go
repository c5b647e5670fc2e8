package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/podiumlab/racenight/src/app/tournaments"
	"github.com/podiumlab/racenight/src/domain/shared"
	"github.com/podiumlab/racenight/src/domain/tournament"
)

type playerResponse struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	TotalPoints int    `json:"total_points"`
	MVPVotes    int    `json:"mvp_votes"`
	Positions   []int  `json:"positions"`
}

type roundResponse struct {
	ID        int               `json:"id"`
	Positions map[string]int    `json:"positions"`
	MVPVotes  map[string]string `json:"mvp_votes"`
	Completed bool              `json:"completed"`
}

type tournamentResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ParticipantCount int              `json:"participant_count"`
	InviteCode       string           `json:"invite_code"`
	InviteLink       string           `json:"invite_link"`
	Status           string           `json:"status"`
	CurrentRound     int              `json:"current_round"`
	Players          []playerResponse `json:"players"`
	Rounds           []roundResponse  `json:"rounds"`
	CreatedAt        time.Time        `json:"created_at"`
	Version          int64            `json:"version"`
}

func toPlayerResponse(p *tournament.Player) playerResponse {
	return playerResponse{
		ID:          string(p.ID),
		Nickname:    p.Nickname,
		TotalPoints: p.TotalPoints,
		MVPVotes:    p.MVPVotes,
		Positions:   p.Positions,
	}
}

func toTournamentResponse(t *tournament.Tournament) tournamentResponse {
	resp := tournamentResponse{
		ID:               string(t.ID),
		Name:             t.Name,
		ParticipantCount: t.ParticipantCount,
		InviteCode:       string(t.InviteCode),
		InviteLink:       "/join/" + string(t.InviteCode),
		Status:           string(t.Status),
		CurrentRound:     t.CurrentRound,
		Players:          make([]playerResponse, len(t.Players)),
		Rounds:           make([]roundResponse, len(t.Rounds)),
		CreatedAt:        t.CreatedAt,
		Version:          t.Version,
	}
	for i, p := range t.Players {
		resp.Players[i] = toPlayerResponse(p)
	}
	for i, r := range t.Rounds {
		round := roundResponse{
			ID:        r.ID,
			Positions: make(map[string]int, len(r.Positions)),
			MVPVotes:  make(map[string]string, len(r.Votes)),
			Completed: r.Completed,
		}
		for id, pos := range r.Positions {
			round.Positions[string(id)] = pos
		}
		for voter, target := range r.Votes {
			round.MVPVotes[string(voter)] = string(target)
		}
		resp.Rounds[i] = round
	}
	return resp
}

type createTournamentRequest struct {
	Name             string `json:"name"`
	ParticipantCount int    `json:"participant_count"`
}

type createTournamentResponse struct {
	Tournament     tournamentResponse `json:"tournament"`
	OrganizerToken string             `json:"organizer_token"`
}

func (s *Server) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.cfg.Tournaments.CreateTournament(r.Context(), tournaments.CreateTournamentCommand{
		Name:             req.Name,
		ParticipantCount: req.ParticipantCount,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	token, err := s.cfg.Tokens.Issue(out.Tournament.ID)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to issue organizer token"})
		return
	}
	s.writeJSON(w, http.StatusCreated, createTournamentResponse{
		Tournament:     toTournamentResponse(out.Tournament),
		OrganizerToken: token,
	})
}

func (s *Server) handleListTournaments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	list, err := s.cfg.Tournaments.ListTournaments(r.Context(), tournaments.ListTournamentsQuery{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := make([]tournamentResponse, len(list))
	for i, t := range list {
		resp[i] = toTournamentResponse(t)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	t, err := s.cfg.Tournaments.GetTournament(r.Context(), tournaments.GetTournamentQuery{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

func (s *Server) handleGetByInviteCode(w http.ResponseWriter, r *http.Request) {
	t, err := s.cfg.Tournaments.GetByInviteCode(r.Context(), tournaments.GetByInviteCodeQuery{
		InviteCode: shared.InviteCode(mux.Vars(r)["code"]),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

type joinRequest struct {
	Nickname string `json:"nickname"`
}

type joinResponse struct {
	Tournament tournamentResponse `json:"tournament"`
	PlayerID   string             `json:"player_id"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.cfg.Tournaments.Join(r.Context(), tournaments.JoinCommand{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
		Nickname:     req.Nickname,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, joinResponse{
		Tournament: toTournamentResponse(out.Tournament),
		PlayerID:   string(out.PlayerID),
	})
}

func (s *Server) handleStartTournament(w http.ResponseWriter, r *http.Request) {
	t, err := s.cfg.Tournaments.StartTournament(r.Context(), tournaments.StartTournamentCommand{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

type submitPositionRequest struct {
	PlayerID string `json:"player_id"`
	Position int    `json:"position"`
}

func (s *Server) handleSubmitPosition(w http.ResponseWriter, r *http.Request) {
	var req submitPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := s.cfg.Tournaments.SubmitPosition(r.Context(), tournaments.SubmitPositionCommand{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
		PlayerID:     shared.PlayerID(req.PlayerID),
		Position:     req.Position,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

type submitMVPVoteRequest struct {
	PlayerID string `json:"player_id"`
	TargetID string `json:"target_id"`
}

func (s *Server) handleSubmitMVPVote(w http.ResponseWriter, r *http.Request) {
	var req submitMVPVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := s.cfg.Tournaments.SubmitMVPVote(r.Context(), tournaments.SubmitMVPVoteCommand{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
		VoterID:      shared.PlayerID(req.PlayerID),
		TargetID:     shared.PlayerID(req.TargetID),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	t, err := s.cfg.Tournaments.EndRound(r.Context(), tournaments.EndRoundCommand{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

func (s *Server) handleCloseTournament(w http.ResponseWriter, r *http.Request) {
	t, err := s.cfg.Tournaments.CloseTournament(r.Context(), tournaments.CloseTournamentCommand{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

func (s *Server) handleDeleteTournament(w http.ResponseWriter, r *http.Request) {
	err := s.cfg.Tournaments.DeleteTournament(r.Context(), tournaments.DeleteTournamentCommand{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ranked, err := s.cfg.Tournaments.Leaderboard(r.Context(), tournaments.LeaderboardQuery{
		TournamentID: shared.TournamentID(mux.Vars(r)["id"]),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := make([]playerResponse, len(ranked))
	for i, p := range ranked {
		resp[i] = toPlayerResponse(p)
	}
	s.writeJSON(w, http.StatusOK, resp)
}
