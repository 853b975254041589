package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/xelth-com/cotaqc/internal/buildinfo"
	"github.com/xelth-com/cotaqc/internal/config"
	"github.com/xelth-com/cotaqc/internal/middleware"
	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/services/qc"
	"github.com/xelth-com/cotaqc/internal/utils"
	"github.com/xelth-com/cotaqc/internal/websocket"
)

const opLoginPath = "/api/op-login"

// AccountStore is the account lookup the auth endpoints need.
type AccountStore interface {
	FindAccountByEmail(ctx context.Context, email string) (*models.UserAuth, error)
	FindAccountByID(ctx context.Context, id string) (*models.UserAuth, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	cfg      *config.Config
	svc      *qc.Service
	accounts AccountStore
	hub      *websocket.Hub
}

// NewRouter creates a new HTTP router with all routes. hub may be nil.
func NewRouter(cfg *config.Config, svc *qc.Service, accounts AccountStore, hub *websocket.Hub) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		cfg:      cfg,
		svc:      svc,
		accounts: accounts,
		hub:      hub,
	}
	authenticated := middleware.AuthMiddleware(cfg.JWTSecret)

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/api/status", r.getStatus).Methods("GET")

	// PIN exchange answers its own preflight and method errors
	r.HandleFunc(opLoginPath, r.opLogin)

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/refresh", r.refresh).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")
	auth.Handle("/me", authenticated(http.HandlerFunc(r.me))).Methods("GET")

	// Manager routes
	gestor := r.PathPrefix("/api/gestor").Subrouter()
	gestor.Use(authenticated, middleware.RequireRole(models.RoleManager), middleware.RequireUUIDVars("id"))
	gestor.HandleFunc("/dashboard", r.dashboard).Methods("GET")
	gestor.HandleFunc("/desenhos", r.listDrawings).Methods("GET")
	gestor.HandleFunc("/desenhos", r.createDrawing).Methods("POST")
	gestor.HandleFunc("/desenhos/{id}", r.getDrawing).Methods("GET")
	gestor.HandleFunc("/desenhos/{id}", r.deleteDrawing).Methods("DELETE")
	gestor.HandleFunc("/desenhos/{id}/arquivar", r.archiveDrawing).Methods("POST")
	gestor.HandleFunc("/desenhos/{id}/referencias", r.drawingReferences).Methods("GET")
	gestor.HandleFunc("/desenhos/{id}/cotas", r.createDimension).Methods("POST")
	gestor.HandleFunc("/cotas/{id}", r.updateDimension).Methods("PUT")
	gestor.HandleFunc("/cotas/{id}/posicao", r.moveDimension).Methods("PATCH")
	gestor.HandleFunc("/cotas/{id}", r.deleteDimension).Methods("DELETE")
	gestor.HandleFunc("/ops", r.listWorkOrders).Methods("GET")
	gestor.HandleFunc("/ops", r.createWorkOrder).Methods("POST")
	gestor.HandleFunc("/ops/{id}", r.getWorkOrder).Methods("GET")
	gestor.HandleFunc("/ops/{id}/export.csv", r.exportCSV).Methods("GET")
	gestor.HandleFunc("/ops/{id}/export.xlsx", r.exportXLSX).Methods("GET")
	gestor.HandleFunc("/ops/{id}/relatorio.pdf", r.exportPDF).Methods("GET")
	gestor.HandleFunc("/ops/{id}/etiquetas.pdf", r.sampleLabels).Methods("GET")

	// Operator routes
	operador := r.PathPrefix("/api/operador").Subrouter()
	operador.Use(authenticated, middleware.RequireRole(models.RoleOperator), middleware.RequireUUIDVars("id", "mid"))
	operador.HandleFunc("/ops", r.listOpenWorkOrders).Methods("GET")
	operador.HandleFunc("/ops/{id}", r.getWorkOrder).Methods("GET")
	operador.HandleFunc("/ops/{id}/amostras", r.generateSamples).Methods("POST")
	operador.HandleFunc("/ops/{id}/medicoes", r.recordMeasurement).Methods("PUT")
	operador.HandleFunc("/ops/{id}/medicoes/{mid}", r.deleteMeasurement).Methods("DELETE")
	operador.HandleFunc("/ops/{id}/concluir", r.completeWorkOrder).Methods("POST")

	if hub != nil {
		r.HandleFunc("/ws", r.serveWs).Methods("GET")
	}

	if cfg.Storage.Driver == "local" {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.UploadDir))))
	}

	return r
}

// Handler returns the router wrapped with CORS. The PIN exchange keeps its
// own fixed headers.
func (r *Router) Handler() http.Handler {
	cors := middleware.CORS(r.cfg.Server.AllowedOrigins)(r.Router)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == opLoginPath {
			r.Router.ServeHTTP(w, req)
			return
		}
		cors.ServeHTTP(w, req)
	})
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns build and process metadata
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "running",
		"build":  buildinfo.Get(),
		"env":    r.cfg.NodeEnv,
	})
}

// serveWs authenticates with ?token= since browsers cannot set headers on upgrade.
func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	if token == "" {
		if t, ok := middleware.BearerToken(req); ok {
			token = t
		}
	}
	ident, err := utils.ParseAccessToken(token, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "token_invalido")
		return
	}
	websocket.ServeWs(r.hub, w, req, ident.ID, ident.Role)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	var ve *qc.ValidationError
	var re *qc.ReferencedError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, qc.ErrNotFound):
		respondError(w, http.StatusNotFound, "nao_encontrado")
	case errors.As(err, &re):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error": qc.ErrDrawingReferenced.Error(),
			"count": re.Count,
		})
	case errors.Is(err, qc.ErrIncomplete):
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":  qc.ErrIncomplete.Error(),
			"detail": err.Error(),
		})
	case errors.Is(err, qc.ErrEmptyPlan), errors.Is(err, qc.ErrForeignReference):
		respondError(w, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, qc.ErrAlreadyCompleted),
		errors.Is(err, qc.ErrWorkOrderClosed),
		errors.Is(err, qc.ErrSamplesExist),
		errors.Is(err, qc.ErrDrawingArchived),
		errors.Is(err, qc.ErrDuplicate),
		errors.Is(err, qc.ErrNoDrawing):
		respondError(w, http.StatusConflict, rootMessage(err))
	default:
		log.Printf("❌ Request failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// rootMessage returns the sentinel's code for wrapped errors.
func rootMessage(err error) string {
	for _, s := range []error{
		qc.ErrEmptyPlan, qc.ErrForeignReference, qc.ErrAlreadyCompleted, qc.ErrWorkOrderClosed,
		qc.ErrSamplesExist, qc.ErrDrawingArchived, qc.ErrDuplicate, qc.ErrNoDrawing,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

func decodeJSON(req *http.Request, v interface{}) error {
	return json.NewDecoder(io.LimitReader(req.Body, 1<<20)).Decode(v)
}
