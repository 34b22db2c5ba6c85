package httpserver

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
)

const goodToken = "good-token"

type fakeAuth struct {
	owner       uuid.UUID
	registerErr error
	loginErr    error
	loginIP     string
	session     model.Session
}

func (f *fakeAuth) Register(context.Context, string, string, string) (uuid.UUID, error) {
	if f.registerErr != nil {
		return uuid.Nil, f.registerErr
	}
	return uuid.Must(uuid.NewV4()), nil
}

func (f *fakeAuth) Login(_ context.Context, _, _, ip string) (model.Session, error) {
	f.loginIP = ip
	if f.loginErr != nil {
		return model.Session{}, f.loginErr
	}
	return f.session, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if token != goodToken {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return f.owner, nil
}

type fakePockets struct {
	err      error
	lastEdit model.PocketEdit
	created  uuid.UUID
	list     []model.PocketSummary
}

func (f *fakePockets) Create(context.Context, uuid.UUID, string, string) (uuid.UUID, error) {
	return f.created, f.err
}
func (f *fakePockets) Edit(_ context.Context, _, _ uuid.UUID, e model.PocketEdit) error {
	f.lastEdit = e
	return f.err
}
func (f *fakePockets) Remove(context.Context, uuid.UUID, uuid.UUID) error { return f.err }
func (f *fakePockets) List(context.Context, uuid.UUID) ([]model.PocketSummary, error) {
	return f.list, f.err
}

type fakeRestaurants struct {
	err       error
	lastIn    model.RestaurantInput
	lastEdit  model.RestaurantEdit
	list      []model.RestaurantSummary
	recommend []model.RestaurantBrief
}

func (f *fakeRestaurants) Create(_ context.Context, _, _ uuid.UUID, in model.RestaurantInput) (uuid.UUID, error) {
	f.lastIn = in
	return uuid.Must(uuid.NewV4()), f.err
}
func (f *fakeRestaurants) Edit(_ context.Context, _, _ uuid.UUID, e model.RestaurantEdit) error {
	f.lastEdit = e
	return f.err
}
func (f *fakeRestaurants) Remove(context.Context, uuid.UUID, uuid.UUID) error { return f.err }
func (f *fakeRestaurants) List(context.Context, uuid.UUID, uuid.UUID) ([]model.RestaurantSummary, error) {
	return f.list, f.err
}
func (f *fakeRestaurants) Recommend(context.Context, uuid.UUID, uuid.UUID) ([]model.RestaurantBrief, error) {
	return f.recommend, f.err
}

type fakeVisits struct {
	err    error
	lastIn model.VisitInput
	list   []model.VisitView
}

func (f *fakeVisits) Create(_ context.Context, _, _ uuid.UUID, in model.VisitInput) (uuid.UUID, error) {
	f.lastIn = in
	return uuid.Must(uuid.NewV4()), f.err
}
func (f *fakeVisits) Edit(_ context.Context, _, _ uuid.UUID, in model.VisitInput) error {
	f.lastIn = in
	return f.err
}
func (f *fakeVisits) Remove(context.Context, uuid.UUID, uuid.UUID) error { return f.err }
func (f *fakeVisits) List(context.Context, uuid.UUID, uuid.UUID) ([]model.VisitView, error) {
	return f.list, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

/************ harness ************/

type harness struct {
	srv         *httptest.Server
	auth        *fakeAuth
	pockets     *fakePockets
	restaurants *fakeRestaurants
	visits      *fakeVisits
}

func newHarness(t *testing.T, mutate ...func(*Deps)) *harness {
	t.Helper()
	h := &harness{
		auth:        &fakeAuth{owner: uuid.Must(uuid.NewV4())},
		pockets:     &fakePockets{},
		restaurants: &fakeRestaurants{},
		visits:      &fakeVisits{},
	}
	d := Deps{
		Auth:        h.auth,
		Pockets:     h.pockets,
		Restaurants: h.restaurants,
		Visits:      h.visits,
		Log:         zaptest.NewLogger(t),
		Loc:         time.UTC,
	}
	for _, m := range mutate {
		m(&d)
	}
	h.srv = httptest.NewServer(New(d).Router())
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) post(t *testing.T, endpoint string, form url.Values) (int, string) {
	t.Helper()
	resp, err := http.PostForm(h.srv.URL+"/api/rest/"+endpoint+"/", form)
	if err != nil {
		t.Fatalf("post %s: %v", endpoint, err)
	}
	return readBody(t, resp)
}

// postMultipart sends form as multipart/form-data, the way browser FormData does.
func (h *harness) postMultipart(t *testing.T, endpoint string, form url.Values) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range form {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				t.Fatalf("write field %s: %v", k, err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	resp, err := http.Post(h.srv.URL+"/api/rest/"+endpoint+"/", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post %s: %v", endpoint, err)
	}
	return readBody(t, resp)
}

func (h *harness) get(t *testing.T, endpoint string, q url.Values) (int, string) {
	t.Helper()
	resp, err := http.Get(h.srv.URL + "/api/rest/" + endpoint + "/?" + q.Encode())
	if err != nil {
		t.Fatalf("get %s: %v", endpoint, err)
	}
	return readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, strings.TrimSpace(string(b))
}
