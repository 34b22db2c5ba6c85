package httpserver

import (
	"errors"
	"net/http"

	"github.com/and161185/foodpocket/internal/convert"
	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
)

const (
	entityPocket     = "Pocket"
	entityRestaurant = "Restaurant"
	entityVisit      = "Visit Record"
)

// --- Accounts ---

func (s *Server) registerAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	username, password, email := p.required("username"), p.required("password"), p.required("email")
	if !p.ok() {
		badRequest(w)
		return
	}
	if _, err := s.auth.Register(r.Context(), username, password, email); err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.ok(w, nil)
}

func (s *Server) loginAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	username, password := p.required("username"), p.required("password")
	if !p.ok() {
		badRequest(w)
		return
	}
	sess, err := s.auth.Login(r.Context(), username, password, remoteIP(r))
	switch {
	case err == nil:
		s.metrics.login("ok")
		s.ok(w, convert.ToLogin(sess, s.loc))
	case errors.Is(err, errs.ErrLoginFailed):
		s.metrics.login("failed")
		s.writeJSON(w, http.StatusOK, envelope{Result: resultLoginFailed, Data: ""})
	case errors.Is(err, errs.ErrRateLimited):
		s.metrics.login("blocked")
		s.fail(w, r, err, "")
	default:
		s.fail(w, r, err, "")
	}
}

// --- Pockets ---

func (s *Server) getPocketList(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token := p.required("user_token")
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	list, err := s.pockets.List(r.Context(), owner)
	if err != nil {
		s.fail(w, r, err, entityPocket)
		return
	}
	s.ok(w, convert.ToPockets(list))
}

func (s *Server) newPocket(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	name, token := p.required("name"), p.required("user_token")
	note := p.v.Get("note")
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	id, err := s.pockets.Create(r.Context(), owner, name, note)
	if err != nil {
		s.fail(w, r, err, entityPocket)
		return
	}
	s.ok(w, convert.PocketCreated{PocketUID: id})
}

func (s *Server) editPocket(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, id := p.required("user_token"), p.uid("pocket_uid")
	edit := model.PocketEdit{
		Name:   p.optional("name"),
		Note:   p.optional("note"),
		Status: p.optional("status"),
	}
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	if err := s.pockets.Edit(r.Context(), owner, id, edit); err != nil {
		s.fail(w, r, err, entityPocket)
		return
	}
	s.ok(w, nil)
}

func (s *Server) removePocket(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, id := p.required("user_token"), p.uid("pocket_uid")
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	if err := s.pockets.Remove(r.Context(), owner, id); err != nil {
		s.fail(w, r, err, entityPocket)
		return
	}
	s.ok(w, nil)
}

// --- Restaurants ---

func (s *Server) getRestaurantList(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, pocket := p.required("user_token"), p.uid("pocket_uid")
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	list, err := s.restaurants.List(r.Context(), owner, pocket)
	if err != nil {
		s.fail(w, r, err, entityPocket)
		return
	}
	s.ok(w, convert.ToRestaurants(list, s.loc))
}

func (s *Server) getRecommendList(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, pocket := p.required("user_token"), p.uid("pocket_uid")
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	list, err := s.restaurants.Recommend(r.Context(), owner, pocket)
	if err != nil {
		s.fail(w, r, err, entityPocket)
		return
	}
	s.ok(w, convert.ToRestaurantBriefs(list, s.loc))
}

func (s *Server) newRestaurant(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, pocket := p.required("user_token"), p.uid("pocket_uid")
	in := model.RestaurantInput{
		Name:      p.required("name"),
		Longitude: p.float("longitude"),
		Latitude:  p.float("latitude"),
		Address:   p.v.Get("address"),
		Note:      p.v.Get("note"),
	}
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	id, err := s.restaurants.Create(r.Context(), owner, pocket, in)
	if err != nil {
		s.fail(w, r, err, entityPocket)
		return
	}
	s.ok(w, convert.RestaurantCreated{RestaurantUID: id})
}

func (s *Server) editRestaurant(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, id := p.required("user_token"), p.uid("restaurant_uid")
	edit := model.RestaurantEdit{
		Name:      p.optional("name"),
		Note:      p.optional("note"),
		Status:    p.optional("status"),
		HideUntil: p.optional("hide_until"),
	}
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	if err := s.restaurants.Edit(r.Context(), owner, id, edit); err != nil {
		s.fail(w, r, err, entityRestaurant)
		return
	}
	s.ok(w, nil)
}

func (s *Server) removeRestaurant(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, id := p.required("user_token"), p.uid("restaurant_uid")
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	if err := s.restaurants.Remove(r.Context(), owner, id); err != nil {
		s.fail(w, r, err, entityRestaurant)
		return
	}
	s.ok(w, nil)
}

// --- Visit records ---

func (s *Server) getVisitRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, pocket := p.required("user_token"), p.uid("pocket_uid")
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	list, err := s.visits.List(r.Context(), owner, pocket)
	if err != nil {
		s.fail(w, r, err, entityPocket)
		return
	}
	s.ok(w, convert.ToVisits(list, s.loc))
}

func (s *Server) newVisit(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, rid := p.required("user_token"), p.uid("restaurant_uid")
	in := model.VisitInput{VisitDate: p.optional("visit_date"), Score: p.optInt("score")}
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	id, err := s.visits.Create(r.Context(), owner, rid, in)
	if err != nil {
		s.fail(w, r, err, entityRestaurant)
		return
	}
	s.ok(w, convert.VisitCreated{VisitRecordUID: id})
}

func (s *Server) editVisitRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, id := p.required("user_token"), p.uid("visitrecord_uid")
	date := p.required("visit_date")
	in := model.VisitInput{VisitDate: &date, Score: p.optInt("score")}
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	if err := s.visits.Edit(r.Context(), owner, id, in); err != nil {
		s.fail(w, r, err, entityVisit)
		return
	}
	s.ok(w, nil)
}

func (s *Server) removeVisitRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := readParams(r)
	if !ok {
		badRequest(w)
		return
	}
	token, id := p.required("user_token"), p.uid("visitrecord_uid")
	if !p.ok() {
		badRequest(w)
		return
	}
	owner, ok := s.account(w, r, token)
	if !ok {
		return
	}
	if err := s.visits.Remove(r.Context(), owner, id); err != nil {
		s.fail(w, r, err, entityVisit)
		return
	}
	s.ok(w, nil)
}
