package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studyroom/internal/config"
	"studyroom/internal/managers"
	"studyroom/internal/models"
	"studyroom/internal/repositories"
	"studyroom/internal/utils"
)

type Handlers struct {
	log          *zap.Logger
	gateway      *managers.Gateway
	repo         *repositories.StudyTimeRepository
	upgrader     websocket.Upgrader
	webrtcConfig webrtc.Configuration
	jwtSecret    []byte
	adminHash    string
	tokenTTL     time.Duration
}

func New(log *zap.Logger, cfg config.Config, gateway *managers.Gateway, repo *repositories.StudyTimeRepository) *Handlers {
	return &Handlers{
		log:      log,
		gateway:  gateway,
		repo:     repo,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		webrtcConfig: utils.BuildWebRTCConfig(
			cfg.WebRTC.STUNServers,
			cfg.WebRTC.TURNURL,
			cfg.WebRTC.TURNUsername,
			cfg.WebRTC.TURNPassword,
		),
		jwtSecret: []byte(cfg.Auth.JWTSecret),
		adminHash: cfg.Auth.AdminPasswordHash,
		tokenTTL:  time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// GetWebRTCConfig hands clients the ICE servers for peer negotiation.
func (h *Handlers) GetWebRTCConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"iceServers": h.webrtcConfig.ICEServers})
}

// RoomWS upgrades the connection and pumps events into the gateway
// until the socket drops. An optional ?token= binds a verified
// identity to the connection; its claims override whatever the client
// later sends in join payloads.
func (h *Handlers) RoomWS(w http.ResponseWriter, r *http.Request) {
	var token *models.TokenIdentity
	if raw := r.URL.Query().Get("token"); raw != "" {
		claims, err := utils.ValidateUserToken(h.jwtSecret, raw)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		token = &models.TokenIdentity{UserDBID: claims.UID, Name: claims.Name, Role: claims.Role}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sid := uuid.NewString()
	client := managers.NewClient(sid, conn)
	client.Token = token
	h.gateway.Connect(client)
	defer h.gateway.Disconnect(sid)

	for {
		var ev models.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		h.gateway.HandleEvent(sid, ev)
	}
}

// GetRoomStatus returns a main room's membership snapshot.
func (h *Handlers) GetRoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	state, ok := h.gateway.RoomState(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetStudyTime returns an account's accumulated minutes.
func (h *Handlers) GetStudyTime(w http.ResponseWriter, r *http.Request) {
	raw, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 32)
	if err != nil || raw == 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	userDBID := uint(raw)
	minutes, err := h.repo.TotalMinutes(userDBID)
	if err != nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_db_id":               userDBID,
		"total_study_time_minutes": minutes,
	})
}

type tokenRequest struct {
	UserName string `json:"user_name"`
	UserDBID uint   `json:"user_db_id,omitempty"`
	Password string `json:"password,omitempty"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	UserDBID uint   `json:"user_db_id,omitempty"`
	Role     string `json:"role"`
}

// IssueToken mints a student identity token, registering a fresh
// ledger account when the caller has none yet.
func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserName == "" {
		writeError(w, http.StatusBadRequest, "user_name is required")
		return
	}

	uid := req.UserDBID
	if uid == 0 {
		account := &models.StudyAccount{Name: req.UserName}
		if err := h.repo.CreateAccount(account); err != nil {
			h.log.Error("account create failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not create account")
			return
		}
		uid = account.ID
	} else if _, err := h.repo.GetAccount(uid); err != nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	token, err := utils.GenerateUserToken(h.jwtSecret, uid, req.UserName, models.RoleStudent, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not sign token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, UserDBID: uid, Role: models.RoleStudent})
}

// IssueAdminToken elevates a caller who knows the admin password to an
// admin-role token. Disabled entirely when no hash is configured.
func (h *Handlers) IssueAdminToken(w http.ResponseWriter, r *http.Request) {
	if h.adminHash == "" {
		writeError(w, http.StatusForbidden, "admin login disabled")
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.adminHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "wrong password")
		return
	}
	name := req.UserName
	if name == "" {
		name = "admin"
	}
	token, err := utils.GenerateUserToken(h.jwtSecret, req.UserDBID, name, models.RoleAdmin, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not sign token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, UserDBID: req.UserDBID, Role: models.RoleAdmin})
}
