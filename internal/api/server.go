package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"coconet/internal/auth"
	"coconet/internal/config"
	"coconet/internal/listing"
	"coconet/internal/models"
	"coconet/internal/repository"
	"coconet/internal/workflows"

	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

const maxImageBytes = 8 << 20

var errRegistrationUnavailable = errors.New("registration workflow engine is not configured")

type ArticleReader interface {
	GetDetailArticle(ctx context.Context, articleUUID string) (models.Article, error)
	GetPopularArticles(ctx context.Context) ([]models.Article, error)
}

type NameChecker interface {
	CheckUsername(ctx context.Context, name string) (bool, error)
}

type Deps struct {
	Config   config.Config
	Session  *listing.Controller
	Articles ArticleReader
	Users    NameChecker
	Hydrator *auth.Hydrator
	Auth     *auth.Context
	// Temporal may be nil; member registration is then unavailable.
	Temporal tclient.Client
	Log      *zap.Logger
}

type Server struct {
	cfg      config.Config
	session  *listing.Controller
	articles ArticleReader
	users    NameChecker
	hydrator *auth.Hydrator
	auth     *auth.Context
	temporal tclient.Client
	log      *zap.Logger
}

func NewServer(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:      d.Config,
		session:  d.Session,
		articles: d.Articles,
		users:    d.Users,
		hydrator: d.Hydrator,
		auth:     d.Auth,
		temporal: d.Temporal,
		log:      log,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/articles", s.handleArticles)
	mux.HandleFunc("/articles/", s.handleArticlesScoped)
	mux.HandleFunc("/popular", s.handlePopular)
	mux.HandleFunc("/oauth2/callback", s.handleOAuthCallback)
	mux.HandleFunc("/members", s.handleMembers)
	mux.HandleFunc("/members/", s.handleMembersScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	tab, err := listing.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state": s.session.State(),
		"view":  s.session.View(tab),
	})
}

func (s *Server) handleArticlesScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/articles/"), "/"), "/")
	if len(parts) != 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}

	switch parts[0] {
	case "stacks":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		var req struct {
			Stack string `json:"stack"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		task, err := s.session.ToggleStack(req.Stack)
		s.respondTask(w, r, task, err)
	case "position":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		var req struct {
			Position string `json:"position"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		task, err := s.session.SelectPosition(req.Position)
		s.respondTask(w, r, task, err)
	case "page":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		var req struct {
			Page int `json:"page"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		task, err := s.session.ChangePage(req.Page)
		s.respondTask(w, r, task, err)
	case "refresh":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		task := s.session.Refresh()
		if task == nil {
			s.respondTask(w, r, nil, listing.ErrClosed)
			return
		}
		s.respondTask(w, r, task, nil)
	default:
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		a, err := s.articles.GetDetailArticle(r.Context(), parts[0])
		if err != nil {
			writeErr(w, upstreamStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"article": a})
	}
}

// respondTask reports a filter mutation. With ?wait=true the response is held
// until the issued fetch settles; otherwise it returns 202 immediately.
func (s *Server) respondTask(w http.ResponseWriter, r *http.Request, task *listing.Task, err error) {
	switch {
	case errors.Is(err, listing.ErrClosed):
		writeErr(w, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if task == nil {
		writeJSON(w, http.StatusOK, map[string]any{"fetch_issued": false, "state": s.session.State()})
		return
	}

	body := map[string]any{
		"fetch_issued": true,
		"task_id":      task.ID.String(),
		"seq":          task.Seq,
	}
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		writeJSON(w, http.StatusAccepted, body)
		return
	}
	if werr := task.Wait(r.Context()); werr != nil {
		switch {
		case errors.Is(werr, context.Canceled), errors.Is(werr, context.DeadlineExceeded):
			return
		case errors.Is(werr, listing.ErrClosed):
			writeErr(w, http.StatusServiceUnavailable, werr)
			return
		case errors.Is(werr, listing.ErrSuperseded):
			body["superseded"] = true
		}
	}
	body["applied"] = task.Applied()
	body["state"] = s.session.State()
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	popular, err := s.articles.GetPopularArticles(r.Context())
	if err != nil {
		writeErr(w, upstreamStatus(err), err)
		return
	}
	if popular == nil {
		popular = []models.Article{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": popular})
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	res, err := s.hydrator.Apply(r.Context(), r.URL.Query())
	if err != nil {
		s.log.Error("auth hydration failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id":     res.MemberID,
		"scroll_locked": res.ScrollLocked,
		"token_set":     s.auth.Token() != "",
	})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, errRegistrationUnavailable)
		return
	}
	in, err := decodeRegistration(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(in.Registration.Name) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}

	wfID := workflows.WorkflowID(in.Registration.Name)
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       wfID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.MemberRegistrationWorkflow, in)
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) handleMembersScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/members/"), "/"), "/")
	if len(parts) != 2 || parts[1] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	name := parts[1]
	switch parts[0] {
	case "name-check":
		taken, err := s.users.CheckUsername(r.Context(), name)
		if err != nil {
			writeErr(w, upstreamStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": name, "taken": taken})
	case "registration":
		if s.temporal == nil {
			writeErr(w, http.StatusServiceUnavailable, errRegistrationUnavailable)
			return
		}
		resp, err := s.temporal.QueryWorkflow(r.Context(), workflows.WorkflowID(name), "", workflows.QueryGetRegistrationStatus)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		var status workflows.RegistrationStatus
		if err := resp.Get(&status); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

// decodeRegistration accepts either a JSON registration body or the
// multipart shape the member service takes: a "request" JSON part plus an
// optional "image" file.
func decodeRegistration(r *http.Request) (workflows.MemberRegistrationInput, error) {
	var in workflows.MemberRegistrationInput
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := json.NewDecoder(r.Body).Decode(&in.Registration); err != nil {
			return in, fmt.Errorf("invalid json: %w", err)
		}
		return in, nil
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return in, fmt.Errorf("parse multipart: %w", err)
	}
	if err := json.Unmarshal([]byte(r.FormValue("request")), &in.Registration); err != nil {
		return in, fmt.Errorf("invalid json: %w", err)
	}
	f, fh, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, fmt.Errorf("read image: %w", err)
	}
	defer f.Close()
	img, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return in, fmt.Errorf("read image: %w", err)
	}
	if len(img) > maxImageBytes {
		return in, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	in.Image = img
	in.ImageName = fh.Filename
	in.ImageContentType = fh.Header.Get("Content-Type")
	return in, nil
}

func upstreamStatus(err error) int {
	switch repository.Classify(err) {
	case repository.ErrorNotFound:
		return http.StatusNotFound
	case repository.ErrorCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "CN-API-4000"

	switch {
	case status == http.StatusBadGateway:
		return apiError{Code: "CN-API-5020", Message: "Upstream service unavailable. Retry shortly."}
	case status == http.StatusGatewayTimeout:
		return apiError{Code: "CN-API-5040", Message: "Upstream service did not answer in time."}
	case status == http.StatusServiceUnavailable:
		return apiError{Code: "CN-API-5030", Message: "Service is not available in this deployment."}
	case status >= 500:
		return apiError{Code: "CN-API-5000", Message: "Internal server error. Please retry or check service logs."}
	case status == http.StatusBadRequest:
		code = "CN-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "CN-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "CN-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "CN-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case errors.Is(err, listing.ErrUnknownPosition):
			msg = "Unknown position."
		case errors.Is(err, listing.ErrEmptyStack):
			msg = "Stack value is required."
		case errors.Is(err, listing.ErrInvalidPage):
			msg = "Page must be 1 or greater."
		}
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "name is required"):
			msg = "Member name is required."
		case strings.Contains(low, "unknown tab"):
			msg = "Unknown tab."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
