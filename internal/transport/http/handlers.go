package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/auth"
	"quizdeck-service/internal/domain"
)

// Handler exposes the quiz use cases over REST. Identity arrives via the
// X-User and X-Role headers set by the outer layer; the core never sees
// credentials beyond the auth endpoints.
type Handler struct {
	service *app.QuizService
	auth    *auth.Service
}

func NewHandler(service *app.QuizService, authSvc *auth.Service) *Handler {
	return &Handler{service: service, auth: authSvc}
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type stagePayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  string   `json:"correct"`
	Points   int      `json:"points"`
}

type publishPayload struct {
	QuizName string `json:"quizName"`
}

type answerPayload struct {
	Question string `json:"question"`
	Option   string `json:"option"`
}

// questionView is the participant-facing shape: no correct answer, no votes.
type questionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Points  int      `json:"points"`
}

type attemptView struct {
	AttemptID string         `json:"attemptId"`
	QuizName  string         `json:"quizName"`
	Questions []questionView `json:"questions"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadJSON)
		return
	}
	role := payload.Role
	if role == "" {
		role = auth.RoleUser
	}
	if err := h.auth.Register(r.Context(), payload.Username, payload.Password, role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadJSON)
		return
	}
	identity, err := h.auth.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) quizQuestions(w http.ResponseWriter, r *http.Request) {
	quizName := chi.URLParam(r, "quiz")
	questions, err := h.service.QuizQuestions(r.Context(), quizName)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{Text: q.Text, Options: q.Options, Points: q.Points})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) stageQuestion(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r)
	var payload stagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadJSON)
		return
	}
	spec := domain.QuestionSpec{
		Text:    payload.Question,
		Options: payload.Options,
		Correct: payload.Correct,
		Points:  payload.Points,
	}
	if err := h.service.StageQuestion(user.Username, spec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "staged"})
}

func (h *Handler) listStaged(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r)
	staged, err := h.service.StagedQuestions(user.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, staged)
}

func (h *Handler) removeStaged(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, errBadIndex)
		return
	}
	if err := h.service.RemoveStaged(user.Username, index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) publishDraft(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r)
	var payload publishPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadJSON)
		return
	}
	published, err := h.service.PublishDraft(r.Context(), user.Username, payload.QuizName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"quizName":  payload.QuizName,
		"published": published,
	})
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r)
	quizName := chi.URLParam(r, "quiz")
	attempt, err := h.service.StartQuiz(r.Context(), quizName, user)
	if err != nil {
		writeError(w, err)
		return
	}
	view := attemptView{AttemptID: attempt.ID, QuizName: attempt.QuizName}
	for _, q := range attempt.Questions() {
		view.Questions = append(view.Questions, questionView{Text: q.Text, Options: q.Options, Points: q.Points})
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "attemptID")
	var payload answerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadJSON)
		return
	}
	if err := h.service.AnswerQuestion(attemptID, payload.Question, payload.Option); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "attemptID")
	result, err := h.service.SubmitAttempt(r.Context(), attemptID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), chi.URLParam(r, "quiz"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.Breakdown(r.Context(), chi.URLParam(r, "quiz"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	entries, err := h.service.Leaderboard(r.Context(), chi.URLParam(r, "quiz"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

var (
	errBadJSON  = errors.New("invalid json body")
	errBadIndex = errors.New("invalid index")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadJSON), errors.Is(err, errBadIndex),
		errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrIndexOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAttemptNotFound), errors.Is(err, domain.ErrEmptyQuiz):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
