package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-chatrelay/internal/database"
	"github.com/npezzotti/go-chatrelay/internal/server"
	"github.com/npezzotti/go-chatrelay/internal/types"
)

const (
	maxUploadSize      = 25 << 20
	defaultAudioSuffix = ".m4a"
)

type MarkSeenRequest struct {
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

type UploadResponse struct {
	Url string `json:"url"`
}

func (s *ChatRelayApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *ChatRelayApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// getHistory returns the conversation between two users in both directions,
// oldest first.
func (s *ChatRelayApp) getHistory(w http.ResponseWriter, r *http.Request) {
	user1, user2 := r.PathValue("user1"), r.PathValue("user2")
	if user1 == "" || user2 == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var limit int
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	messages, err := s.db.GetHistory(r.Context(), user1, user2, limit)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	history := make([]types.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		history = append(history, msg.ChatMessage(""))
	}

	s.writeJson(w, http.StatusOK, history)
}

// markSeen marks everything user2 sent to user1 as seen.
func (s *ChatRelayApp) markSeen(w http.ResponseWriter, r *http.Request) {
	var req MarkSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.User1 == "" || req.User2 == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	n, err := s.db.MarkSeen(r.Context(), req.User2, req.User1)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}

func (s *ChatRelayApp) setNotificationToken(w http.ResponseWriter, r *http.Request) {
	var req types.NotificationToken
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.UserId == "" || req.Token == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	tok, err := s.db.UpsertNotificationToken(r.Context(), database.UpsertTokenParams{
		UserId: req.UserId,
		Email:  req.Email,
		Token:  req.Token,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, tok.Public())
}

func (s *ChatRelayApp) getNotificationToken(w http.ResponseWriter, r *http.Request) {
	userId := r.PathValue("userId")
	if userId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	tok, err := s.db.GetNotificationToken(r.Context(), userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if tok.Token == "" {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, tok.Public())
}

// uploadAudio stores the multipart "audio" file under the upload directory
// and returns the URL it is served from.
func (s *ChatRelayApp) uploadAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("audio")
	if err != nil {
		var errResp *ApiError
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			errResp = NewRequestEntityTooLargeError()
		} else {
			errResp = NewBadRequestError()
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = defaultAudioSuffix
	}
	name := "audio-" + uuid.NewString() + ext

	if err := s.saveUpload(name, file); err != nil {
		s.log.Printf("save upload %s: %v", name, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	url := s.uploadURL(r, name)
	s.log.Printf("audio file uploaded, available at %s", url)
	s.writeJson(w, http.StatusOK, UploadResponse{Url: url})
}

func (s *ChatRelayApp) saveUpload(name string, src io.Reader) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return fmt.Errorf("write file: %w", err)
	}

	return dst.Close()
}

func (s *ChatRelayApp) uploadURL(r *http.Request, name string) string {
	base := s.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	return base + "/uploads/" + name
}

func (s *ChatRelayApp) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// native clients send no origin
		return true
	}

	return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
}

// serveWs upgrades the request and hands the connection to the chat server.
// The peer stays anonymous until it sends an identification frame.
func (s *ChatRelayApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(conn, s.cs, s.log)
	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
