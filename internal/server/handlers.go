package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vanshika/kintrace/internal/domain"
	"github.com/vanshika/kintrace/internal/kin"
	"github.com/vanshika/kintrace/internal/service"
)

// FamilyAnalyzer is the family service surface the API exposes.
type FamilyAnalyzer interface {
	Layout(ctx context.Context, familyID string) (kin.Layout, error)
	Kinship(ctx context.Context, familyID, a, b string) (kin.Kinship, error)
	KinshipBatch(ctx context.Context, familyID string, pairs []service.Pair) ([]kin.Kinship, error)
	Path(ctx context.Context, familyID, from, to string) (kin.Path, error)
	Components(ctx context.Context, familyID string) ([]kin.Component, error)
	Summary(ctx context.Context, familyID string) (service.Summary, error)
	Refresh(familyID string) bool
}

// APIHandlers exposes HTTP handlers for the family API.
type APIHandlers struct {
	logger   *slog.Logger
	service  FamilyAnalyzer
	validate *validator.Validate
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc FamilyAnalyzer) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		service:  svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// handleFamilies dispatches /families/{id}/{action}.
func (h *APIHandlers) handleFamilies(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/families/"), "/")
	familyID, action, _ := strings.Cut(rest, "/")
	if familyID == "" {
		writeError(w, http.StatusBadRequest, "family ID is required")
		return
	}

	switch action {
	case "layout":
		h.onlyGet(w, r, familyID, h.layout)
	case "summary":
		h.onlyGet(w, r, familyID, h.summary)
	case "path":
		h.onlyGet(w, r, familyID, h.path)
	case "components":
		h.onlyGet(w, r, familyID, h.components)
	case "kinship":
		switch r.Method {
		case http.MethodGet:
			h.kinship(w, r, familyID)
		case http.MethodPost:
			h.kinshipBatch(w, r, familyID)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case "refresh":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.refresh(w, familyID)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown family resource %q", action))
	}
}

func (h *APIHandlers) onlyGet(w http.ResponseWriter, r *http.Request, familyID string, fn func(http.ResponseWriter, *http.Request, string)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	fn(w, r, familyID)
}

func (h *APIHandlers) layout(w http.ResponseWriter, r *http.Request, familyID string) {
	layout, err := h.service.Layout(r.Context(), familyID)
	if err != nil {
		h.fail(w, err, "failed to lay out family", "familyId", familyID)
		return
	}
	respondJSON(w, http.StatusOK, newLayoutResponse(familyID, layout))
}

func (h *APIHandlers) summary(w http.ResponseWriter, r *http.Request, familyID string) {
	sum, err := h.service.Summary(r.Context(), familyID)
	if err != nil {
		h.fail(w, err, "failed to summarise family", "familyId", familyID)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (h *APIHandlers) kinship(w http.ResponseWriter, r *http.Request, familyID string) {
	q := r.URL.Query()
	a, b := strings.TrimSpace(q.Get("a")), strings.TrimSpace(q.Get("b"))
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "query parameters a and b are required")
		return
	}

	k, err := h.service.Kinship(r.Context(), familyID, a, b)
	if err != nil {
		h.fail(w, err, "failed to resolve kinship", "familyId", familyID, "a", a, "b", b)
		return
	}
	respondJSON(w, http.StatusOK, newKinshipResponse(k))
}

func (h *APIHandlers) kinshipBatch(w http.ResponseWriter, r *http.Request, familyID string) {
	var payload kinshipBatchRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	pairs := make([]service.Pair, len(payload.Pairs))
	for i, p := range payload.Pairs {
		pairs[i] = service.Pair{A: strings.TrimSpace(p.A), B: strings.TrimSpace(p.B)}
	}

	results, err := h.service.KinshipBatch(r.Context(), familyID, pairs)
	var batchErr *service.BatchError
	if err != nil && !errors.As(err, &batchErr) {
		h.fail(w, err, "failed to resolve kinship batch", "familyId", familyID, "pairs", len(pairs))
		return
	}

	failed := make(map[int]string)
	if batchErr != nil {
		for _, f := range batchErr.Failures {
			failed[f.Index] = f.Err.Error()
		}
	}
	resp := kinshipBatchResponse{FamilyID: familyID, Results: make([]kinshipBatchItem, len(pairs)), Failed: len(failed)}
	for i, pair := range pairs {
		item := kinshipBatchItem{Index: i, A: pair.A, B: pair.B}
		if msg, ok := failed[i]; ok {
			item.Error = msg
		} else {
			k := newKinshipResponse(results[i])
			item.Kinship = &k
		}
		resp.Results[i] = item
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) path(w http.ResponseWriter, r *http.Request, familyID string) {
	q := r.URL.Query()
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "query parameters from and to are required")
		return
	}

	p, err := h.service.Path(r.Context(), familyID, from, to)
	if err != nil {
		h.fail(w, err, "failed to find path", "familyId", familyID, "from", from, "to", to)
		return
	}
	respondJSON(w, http.StatusOK, newPathResponse(p))
}

func (h *APIHandlers) components(w http.ResponseWriter, r *http.Request, familyID string) {
	cs, err := h.service.Components(r.Context(), familyID)
	if err != nil {
		h.fail(w, err, "failed to find components", "familyId", familyID)
		return
	}
	respondJSON(w, http.StatusOK, newComponentsResponse(familyID, cs))
}

func (h *APIHandlers) refresh(w http.ResponseWriter, familyID string) {
	dropped := h.service.Refresh(familyID)
	respondJSON(w, http.StatusOK, map[string]any{
		"familyId": familyID,
		"dropped":  dropped,
	})
}

// fail maps service errors to statuses. Only unexpected failures are logged at error level.
func (h *APIHandlers) fail(w http.ResponseWriter, err error, msg string, attrs ...any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, append(attrs, "error", err)...)
		writeError(w, status, msg)
		return
	}
	h.logger.Debug(msg, append(attrs, "error", err, "status", status)...)
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrFamilyNotFound), errors.Is(err, kin.ErrUnknownIndividual):
		return http.StatusNotFound
	case errors.Is(err, kin.ErrCyclicAncestry),
		errors.Is(err, kin.ErrTooManyParents),
		errors.Is(err, kin.ErrLevelConflict),
		errors.Is(err, kin.ErrDuplicateIndividual),
		errors.Is(err, kin.ErrEmptyIndividualID):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrTooManyPairs):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
