package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/adapter"
	"telegram-markov-bot/internal/usecase"
)

const requestTimeout = 10 * time.Second

// Server is the operator HTTP API: corpus inspection and on-demand generation.
type Server struct {
	corpus   usecase.CorpusUseCase
	settings usecase.SettingsUseCase
	generate usecase.GenerateUseCase
	poster   adapter.TelegramBotAdapter
	auth     *AuthManager
	log      *zerolog.Logger
}

// NewServer builds the API. poster may be nil; generate?post=true is then refused.
func NewServer(
	corpus usecase.CorpusUseCase,
	settings usecase.SettingsUseCase,
	generate usecase.GenerateUseCase,
	poster adapter.TelegramBotAdapter,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		corpus:   corpus,
		settings: settings,
		generate: generate,
		poster:   poster,
		auth:     auth,
		log:      &l,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/chats/{chatID}", func(r chi.Router) {
		r.Use(s.auth.RequireAdmin)
		r.Get("/", s.handleChat)
		r.Post("/generate", s.handleGenerate)
	})
	return r
}

// Run serves on addr until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("admin api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type chatResponse struct {
	ChatID   int64              `json:"chatId"`
	Samples  int                `json:"samples"`
	Bytes    int64              `json:"bytes"`
	Settings model.ChatSettings `json:"settings"`
}

type generateResponse struct {
	Text   string `json:"text"`
	OK     bool   `json:"ok"`
	Posted bool   `json:"posted,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}
	info, err := s.corpus.Info(r.Context(), chatID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.settings.Get(r.Context(), chatID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{ChatID: chatID, Samples: info.Samples, Bytes: info.Bytes, Settings: st})
}

// handleGenerate serves POST /generate?size=small[&post=true].
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	post, _ := strconv.ParseBool(q.Get("post"))
	if post && s.poster == nil {
		writeError(w, http.StatusServiceUnavailable, "bot is not running")
		return
	}

	var (
		text string
		err  error
	)
	if size := strings.TrimSpace(q.Get("size")); size != "" {
		text, err = s.generate.OnDemand(r.Context(), chatID, model.ParseGenSize(size))
	} else {
		text, err = s.generate.OnDemandDefault(r.Context(), chatID)
	}
	if e, isShort := usecase.IsNotEnoughSamples(err); isShort {
		writeJSON(w, http.StatusOK, generateResponse{
			OK:    false,
			Error: fmt.Sprintf("not enough samples: have %d, need %d", e.Have, e.Need),
		})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := generateResponse{Text: text, OK: true}
	if post {
		if err := s.poster.SendMessage(r.Context(), chatID, text); err != nil {
			s.log.Warn().Err(err).Int64("chat_id", chatID).Msg("post to chat failed")
			writeError(w, http.StatusBadGateway, "post to chat failed")
			return
		}
		resp.Posted = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func chatIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return 0, false
	}
	return id, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
