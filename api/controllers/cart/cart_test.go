package cart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/scanpay-backend/api/middleware"
	cartsvc "github.com/angelmondragon/scanpay-backend/internal/cart"
	"github.com/angelmondragon/scanpay-backend/internal/spinner"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

// stubService records the last call. Unimplemented methods panic through the nil embed.
type stubService struct {
	cartsvc.Service
	owner     cartsvc.Owner
	productID string
	qty       int
	skip      bool
	bundleID  string
	addMiss   bool
	points    int
	err       error
}

func (s *stubService) summary() (*cartsvc.Summary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &cartsvc.Summary{ItemCount: s.qty}, nil
}

func (s *stubService) Get(_ context.Context, owner cartsvc.Owner) (*cartsvc.Summary, error) {
	s.owner = owner
	return s.summary()
}

func (s *stubService) AddItem(_ context.Context, owner cartsvc.Owner, productID string, qty int, skip bool) (*cartsvc.Summary, error) {
	s.owner, s.productID, s.qty, s.skip = owner, productID, qty, skip
	return s.summary()
}

func (s *stubService) UpdateQuantity(_ context.Context, owner cartsvc.Owner, productID string, qty int) (*cartsvc.Summary, error) {
	s.owner, s.productID, s.qty = owner, productID, qty
	return s.summary()
}

func (s *stubService) RemoveItem(_ context.Context, owner cartsvc.Owner, productID string) (*cartsvc.Summary, error) {
	s.owner, s.productID = owner, productID
	return s.summary()
}

func (s *stubService) RedeemPoints(_ context.Context, owner cartsvc.Owner, points int) (*cartsvc.Summary, error) {
	s.owner, s.points = owner, points
	return s.summary()
}

func (s *stubService) AcceptBundle(_ context.Context, owner cartsvc.Owner, bundleID string, add bool) (*cartsvc.Summary, error) {
	s.owner, s.bundleID, s.addMiss = owner, bundleID, add
	return s.summary()
}

func (s *stubService) Spin(_ context.Context, owner cartsvc.Owner) (*cartsvc.SpinOutcome, error) {
	s.owner = owner
	if s.err != nil {
		return nil, s.err
	}
	return &cartsvc.SpinOutcome{Spin: spinner.Result{Angle: 90, Segment: 2}}, nil
}

func guestRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	owner, err := cartsvc.GuestOwner("guest-1")
	require.NoError(t, err)
	return req.WithContext(middleware.WithCartOwner(req.Context(), owner))
}

func withProductParam(req *http.Request, id string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("productId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestGetRequiresOwner(t *testing.T) {
	resp := httptest.NewRecorder()
	Get(&stubService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetUsesResolvedOwner(t *testing.T) {
	svc := &stubService{}
	resp := httptest.NewRecorder()
	Get(svc, nil).ServeHTTP(resp, guestRequest(t, http.MethodGet, "/api/v1/cart", ""))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "guest:guest-1", svc.owner.Key)
}

func TestAddItemPassesPayload(t *testing.T) {
	svc := &stubService{}
	body := `{"productId":" prod-003 ","quantity":2,"skipBundleCheck":true}`
	resp := httptest.NewRecorder()
	AddItem(svc, nil).ServeHTTP(resp, guestRequest(t, http.MethodPost, "/api/v1/cart/items", body))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "prod-003", svc.productID)
	assert.Equal(t, 2, svc.qty)
	assert.True(t, svc.skip)
}

func TestAddItemValidatesQuantity(t *testing.T) {
	svc := &stubService{}
	resp := httptest.NewRecorder()
	AddItem(svc, nil).ServeHTTP(resp, guestRequest(t, http.MethodPost, "/api/v1/cart/items", `{"productId":"prod-003","quantity":0}`))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, svc.productID)
}

func TestUpdateQuantityAllowsZero(t *testing.T) {
	svc := &stubService{qty: -1}
	req := withProductParam(guestRequest(t, http.MethodPatch, "/api/v1/cart/items/prod-001", `{"quantity":0}`), "prod-001")
	resp := httptest.NewRecorder()
	UpdateQuantity(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "prod-001", svc.productID)
	assert.Equal(t, 0, svc.qty)
}

func TestUpdateQuantityRequiresField(t *testing.T) {
	req := withProductParam(guestRequest(t, http.MethodPatch, "/api/v1/cart/items/prod-001", `{}`), "prod-001")
	resp := httptest.NewRecorder()
	UpdateQuantity(&stubService{}, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRemoveItemUsesPathParam(t *testing.T) {
	svc := &stubService{}
	req := withProductParam(guestRequest(t, http.MethodDelete, "/api/v1/cart/items/prod-002", ""), "prod-002")
	resp := httptest.NewRecorder()
	RemoveItem(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "prod-002", svc.productID)
}

func TestRedeemPointsSurfacesServiceError(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required")}
	resp := httptest.NewRecorder()
	RedeemPoints(svc, nil).ServeHTTP(resp, guestRequest(t, http.MethodPost, "/api/v1/cart/points", `{"points":50}`))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, 50, svc.points)
}

func TestAcceptBundlePassesFlags(t *testing.T) {
	svc := &stubService{}
	resp := httptest.NewRecorder()
	AcceptBundle(svc, nil).ServeHTTP(resp, guestRequest(t, http.MethodPost, "/api/v1/cart/bundle", `{"bundleId":"bundle-1","addMissingItems":true}`))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "bundle-1", svc.bundleID)
	assert.True(t, svc.addMiss)
}

func TestSpinReturnsOutcome(t *testing.T) {
	svc := &stubService{}
	resp := httptest.NewRecorder()
	Spin(svc, nil).ServeHTTP(resp, guestRequest(t, http.MethodPost, "/api/v1/cart/spin", ""))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"segment":2`)
}

func TestSpinConflict(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "Spinner Already Used")}
	resp := httptest.NewRecorder()
	Spin(svc, nil).ServeHTTP(resp, guestRequest(t, http.MethodPost, "/api/v1/cart/spin", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
