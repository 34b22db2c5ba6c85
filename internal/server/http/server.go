// Package httpserver exposes the FoodPocket REST API over form-encoded HTTP.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/limiter"
	"github.com/and161185/foodpocket/internal/service"
	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps lists what the server needs. Limiter, Metrics and Health are optional.
type Deps struct {
	Auth        service.AuthService
	Pockets     service.PocketService
	Restaurants service.RestaurantService
	Visits      service.VisitService

	Health  Pinger
	Limiter *limiter.Keyed
	Metrics *Metrics
	Log     *zap.Logger
	Loc     *time.Location
}

// Server wires services into HTTP handlers.
type Server struct {
	auth        service.AuthService
	pockets     service.PocketService
	restaurants service.RestaurantService
	visits      service.VisitService

	health  Pinger
	limiter *limiter.Keyed
	metrics *Metrics
	log     *zap.Logger
	loc     *time.Location
}

// New constructs a server with injected services.
func New(d Deps) *Server {
	s := &Server{
		auth:        d.Auth,
		pockets:     d.Pockets,
		restaurants: d.Restaurants,
		visits:      d.Visits,
		health:      d.Health,
		limiter:     d.Limiter,
		metrics:     d.Metrics,
		log:         d.Log,
		loc:         d.Loc,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Router builds the route table with its middleware chain.
func (s *Server) Router() *mux.Router {
	root := mux.NewRouter()
	root.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	root.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	api := root.PathPrefix("/api/rest").Subrouter()
	api.Use(Recover(s.log), Logging(s.log), Instrument(s.metrics))
	if s.limiter != nil {
		api.Use(Throttle(s.limiter, s.metrics, s.log))
	}

	s.route(api, "registerAccount", http.MethodPost, s.registerAccount)
	s.route(api, "loginAccount", http.MethodPost, s.loginAccount)

	s.route(api, "getPocketList", http.MethodGet, s.getPocketList)
	s.route(api, "newPocket", http.MethodPost, s.newPocket)
	s.route(api, "editPocket", http.MethodPost, s.editPocket)
	s.route(api, "removePocket", http.MethodPost, s.removePocket)

	s.route(api, "getRestaurantList", http.MethodGet, s.getRestaurantList)
	s.route(api, "getRecommendList", http.MethodGet, s.getRecommendList)
	s.route(api, "newRestaurant", http.MethodPost, s.newRestaurant)
	s.route(api, "editRestaurant", http.MethodPost, s.editRestaurant)
	s.route(api, "removeRestaurant", http.MethodPost, s.removeRestaurant)

	s.route(api, "getVisitRecords", http.MethodGet, s.getVisitRecords)
	s.route(api, "newVisit", http.MethodPost, s.newVisit)
	s.route(api, "editVisitRecord", http.MethodPost, s.editVisitRecord)
	s.route(api, "removeVisitRecord", http.MethodPost, s.removeVisitRecord)
	return root
}

// route mounts h at /<name> and /<name>/. Any other method gets a 400.
func (s *Server) route(r *mux.Router, name, method string, h http.HandlerFunc) {
	guarded := func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			badRequest(w)
			return
		}
		h(w, req)
	}
	r.HandleFunc("/"+name, guarded)
	r.HandleFunc("/"+name+"/", guarded)
}

// account resolves the token to an account id or writes the failure.
func (s *Server) account(w http.ResponseWriter, r *http.Request, token string) (uuid.UUID, bool) {
	id, err := s.auth.Authenticate(r.Context(), token)
	if err != nil {
		if !errors.Is(err, errs.ErrUnauthorized) {
			s.log.Error("authenticate", zap.Error(err))
			http.Error(w, msgInternal, http.StatusInternalServerError)
			return uuid.Nil, false
		}
		http.Error(w, msgUnauthorized, http.StatusUnauthorized)
		return uuid.Nil, false
	}
	setAccountID(r.Context(), id)
	return id, true
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.log.Warn("health check", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
