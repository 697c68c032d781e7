package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/chat"
	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/internal/logging"
	"github.com/haytac/chat-tokenizer/internal/metrics"
	"github.com/haytac/chat-tokenizer/internal/tokenizer"
)

const (
	offsetsBytes = "bytes"
	offsetsUTF16 = "utf16"
)

// TokenizeRequest is the body of POST /v1/tokenize and POST /v1/render. Either
// Raw (a platform event, decoded by the platform's normalizer) or Body is set.
type TokenizeRequest struct {
	Platform  chat.Platform   `json:"platform,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Body      string          `json:"body,omitempty"`
	ChannelID string          `json:"channel_id,omitempty"`
	Author    string          `json:"author,omitempty"`
	Offsets   string          `json:"offsets,omitempty"`
}

// TokenizeResponse is returned by POST /v1/tokenize.
type TokenizeResponse struct {
	MessageID string       `json:"message_id"`
	Platform  string       `json:"platform,omitempty"`
	ChannelID string       `json:"channel_id,omitempty"`
	Body      string       `json:"body"`
	Offsets   string       `json:"offsets"`
	Tokens    []chat.Token `json:"tokens"`
	Mentions  []string     `json:"mentions"`
}

// FallbackResponse is returned with 422 when a message cannot be tokenized; the
// body should be displayed as plain text.
type FallbackResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
	Text      string `json:"text"`
	HTML      string `json:"html,omitempty"`
}

// RenderResponse is returned by POST /v1/render.
type RenderResponse struct {
	MessageID string `json:"message_id"`
	HTML      string `json:"html"`
}

// EmoteSetResponse lists the emotes of one scope.
type EmoteSetResponse struct {
	Scope  string              `json:"scope"`
	Count  int                 `json:"count"`
	Emotes []*emote.Descriptor `json:"emotes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// rawEvent returns the raw payload of req. A JSON string is unwrapped so that
// line-based formats such as IRC can be posted as strings.
func rawEvent(raw json.RawMessage) []byte {
	if len(raw) > 0 && raw[0] == '"' {
		var line string
		if err := json.Unmarshal(raw, &line); err == nil {
			return []byte(line)
		}
	}
	return raw
}

// message builds the chat message described by req. The returned status is
// meaningful only when err is not nil.
func (s *Server) message(req *TokenizeRequest) (*chat.Message, int, error) {
	if len(req.Raw) > 0 {
		if s.normalizers == nil {
			return nil, http.StatusBadRequest, errors.New("raw events are not supported")
		}
		msg, err := s.normalizers.Normalize(req.Platform, rawEvent(req.Raw))
		if err != nil {
			metrics.NormalizeErrors.WithLabelValues(string(req.Platform)).Inc()
			return nil, http.StatusBadRequest, err
		}
		if req.ChannelID != "" {
			msg.ChannelID = req.ChannelID
		}
		return msg, 0, nil
	}

	if req.Platform == "" {
		req.Platform = chat.PlatformTwitch
	}
	id := req.MessageID
	if id == "" {
		id = uuid.NewString()
	}
	msg := chat.NewMessage(id, req.Platform, req.Body)
	msg.ChannelID = req.ChannelID
	msg.Author = req.Author
	return msg, 0, nil
}

// tokenize resolves the emote scopes for msg and runs the tokenizer. Emotes the
// platform resolved itself take precedence over the channel's catalog.
func (s *Server) tokenize(msg *chat.Message) ([]chat.Token, error) {
	global, local := s.emotes.Scopes(msg.ChannelID, msg.Native)
	tokens, err := s.tokenizer.Tokenize(msg, tokenizer.Options{
		EmoteMap:      global,
		LocalEmoteMap: local,
		FilteredWords: s.filtered,
		ActorUsername: msg.Author,
	})
	metrics.ObserveTokens(msg.Platform, tokens, err)
	if err != nil {
		l := logging.MessageLogger(msg)
		l.Warn().Err(err).Msg("Tokenization failed, falling back to plain text")
	}
	return tokens, err
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req TokenizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	offsets := strings.ToLower(req.Offsets)
	if offsets == "" {
		offsets = offsetsBytes
	}
	if offsets != offsetsBytes && offsets != offsetsUTF16 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported offsets %q", req.Offsets))
		return
	}

	msg, status, err := s.message(&req)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	tokens, err := s.tokenize(msg)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, FallbackResponse{MessageID: msg.ID, Error: err.Error(), Text: msg.Body})
		return
	}
	if offsets == offsetsUTF16 {
		tokens = tokenizer.ToUTF16(msg.Body, tokens)
	}

	writeJSON(w, http.StatusOK, TokenizeResponse{
		MessageID: msg.ID,
		Platform:  string(msg.Platform),
		ChannelID: msg.ChannelID,
		Body:      msg.Body,
		Offsets:   offsets,
		Tokens:    tokens,
		Mentions:  msg.MentionList(),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req TokenizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, status, err := s.message(&req)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	tokens, err := s.tokenize(msg)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, FallbackResponse{
			MessageID: msg.ID,
			Error:     err.Error(),
			Text:      msg.Body,
			HTML:      s.renderer.HTML(msg.Body, nil),
		})
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{MessageID: msg.ID, HTML: s.renderer.HTML(msg.Body, tokens)})
}

func emoteSet(scope string, m emote.Map) EmoteSetResponse {
	descs := m.Descriptors()
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return EmoteSetResponse{Scope: scope, Count: len(descs), Emotes: descs}
}

func (s *Server) handleGlobalEmotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emoteSet("global", s.emotes.Global()))
}

func (s *Server) handleChannelEmotes(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	m := s.emotes.Channel(channelID)
	if m == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no emotes loaded for channel %q", channelID))
		return
	}
	writeJSON(w, http.StatusOK, emoteSet(channelID, m))
}

type putEmotesRequest struct {
	Emotes []*emote.Descriptor `json:"emotes"`
}

func (s *Server) handlePutChannelEmotes(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if channelID == database.GlobalScope {
		writeError(w, http.StatusBadRequest, "channel id is required")
		return
	}
	var req putEmotesRequest
	if !s.decode(w, r, &req) {
		return
	}

	m := emote.NewMap(req.Emotes...)
	if s.repo != nil {
		if _, err := s.repo.ReplaceScope(r.Context(), channelID, m.Descriptors()); err != nil {
			log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to persist channel emotes")
			writeError(w, http.StatusInternalServerError, "failed to persist emotes")
			return
		}
		stored, err := s.repo.LoadMap(r.Context(), channelID)
		if err != nil {
			log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to reload channel emotes")
			writeError(w, http.StatusInternalServerError, "failed to reload emotes")
			return
		}
		m = stored
	}
	s.emotes.SetChannel(channelID, m)
	metrics.CatalogEmotes.WithLabelValues(channelID).Set(float64(len(m)))
	writeJSON(w, http.StatusOK, emoteSet(channelID, m))
}
