package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"wayfare/catalog"
	"wayfare/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeCatalog struct {
	pkgs map[string]*models.Package
}

func (f *fakeCatalog) PackageByID(_ context.Context, id string) (*models.Package, error) {
	if pkg, ok := f.pkgs[id]; ok {
		return pkg, nil
	}
	return nil, catalog.ErrNotFound
}

func newFakeCatalog(pkgs ...*models.Package) *fakeCatalog {
	f := &fakeCatalog{pkgs: make(map[string]*models.Package)}
	for _, pkg := range pkgs {
		f.pkgs[pkg.ID.Hex()] = pkg
	}
	return f
}

// failingCatalog simulates a catalog whose store is down.
type failingCatalog struct{}

func (failingCatalog) PackageByID(context.Context, string) (*models.Package, error) {
	return nil, errors.New("connection refused")
}

// fakeStore is an in-memory Store; failErr forces every call to fail.
type fakeStore struct {
	items   map[primitive.ObjectID]models.Booking
	order   []primitive.ObjectID
	failErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[primitive.ObjectID]models.Booking)}
}

func (f *fakeStore) List(context.Context) ([]models.Booking, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := make([]models.Booking, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		out = append(out, f.items[f.order[i]])
	}
	return out, nil
}

func (f *fakeStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Booking, error) {
	if f.failErr != nil {
		return models.Booking{}, f.failErr
	}
	bk, ok := f.items[id]
	if !ok {
		return models.Booking{}, mongo.ErrNoDocuments
	}
	return bk, nil
}

func (f *fakeStore) Insert(_ context.Context, bk models.Booking) (primitive.ObjectID, error) {
	if f.failErr != nil {
		return primitive.NilObjectID, f.failErr
	}
	id := primitive.NewObjectID()
	bk.ID = id
	f.items[id] = bk
	f.order = append(f.order, id)
	return id, nil
}

func (f *fakeStore) Update(_ context.Context, id primitive.ObjectID, bk models.Booking) error {
	if f.failErr != nil {
		return f.failErr
	}
	bk.ID = id
	f.items[id] = bk
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	if _, ok := f.items[id]; !ok {
		return 0, nil
	}
	delete(f.items, id)
	return 1, nil
}

func testPackage(price float64) *models.Package {
	return &models.Package{
		ID:          primitive.NewObjectID(),
		Title:       "Bali Retreat",
		Destination: "Bali",
		Price:       price,
		Duration:    7,
		Description: "x",
		ImageURL:    models.DefaultImageURL,
	}
}

func TestTotalDerivesFromPriceAndGuests(t *testing.T) {
	pkg := testPackage(500)

	assert.Equal(t, 1500.0, Total(pkg, 3))
	// recompute with a new guest count reflects only the effective values
	assert.Equal(t, 2500.0, Total(pkg, 5))
}

func TestResolverUnresolvedReference(t *testing.T) {
	resolver := newFakeCatalog()

	_, err := resolver.PackageByID(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestExpandResolvesPackage(t *testing.T) {
	pkg := testPackage(500)
	api := &API{Catalog: newFakeCatalog(pkg)}

	bk := models.Booking{ID: primitive.NewObjectID(), SelectedPackage: pkg.ID}
	detail, err := api.expand(context.Background(), bk)
	require.NoError(t, err)
	require.NotNil(t, detail.Package)
	assert.Equal(t, pkg.Title, detail.Package.Title)
}

func TestExpandMarksDeletedPackageUnavailable(t *testing.T) {
	api := &API{Catalog: newFakeCatalog()}

	bk := models.Booking{ID: primitive.NewObjectID(), SelectedPackage: primitive.NewObjectID()}
	detail, err := api.expand(context.Background(), bk)
	require.NoError(t, err)
	assert.Nil(t, detail.Package)
}

func TestExpandSurfacesResolverFailure(t *testing.T) {
	// a store outage must not read as "package deleted"
	api := &API{Catalog: failingCatalog{}}

	bk := models.Booking{ID: primitive.NewObjectID(), SelectedPackage: primitive.NewObjectID()}
	_, err := api.expand(context.Background(), bk)
	require.Error(t, err)
}

func postBooking(t *testing.T, api *API, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(body))
	w := httptest.NewRecorder()
	api.CreateBooking(w, req, httprouter.Params{})
	return w
}

func putBooking(t *testing.T, api *API, id string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/bookings/"+id, bytes.NewReader(body))
	w := httptest.NewRecorder()
	api.UpdateBooking(w, req, httprouter.Params{{Key: "id", Value: id}})
	return w
}

func getBooking(t *testing.T, api *API, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/bookings/"+id, nil)
	w := httptest.NewRecorder()
	api.GetBooking(w, req, httprouter.Params{{Key: "id", Value: id}})
	return w
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) models.BookingDetail {
	t.Helper()
	var detail models.BookingDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	return detail
}

func errMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["message"]
}

func TestCreateBookingRejectsMalformedJSON(t *testing.T) {
	api := &API{Catalog: newFakeCatalog()}

	w := postBooking(t, api, []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingRequiresPackageReference(t *testing.T) {
	api := &API{Catalog: newFakeCatalog()}

	w := postBooking(t, api, []byte(`{"name":"Ann","email":"ann@example.com","date":"2026-09-15"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "selectedPackage is required", errMessage(t, w))
}

func TestCreateBookingUnresolvedReferenceIs404(t *testing.T) {
	// resolution fails before validation and before any write
	store := newFakeStore()
	api := &API{Store: store, Catalog: newFakeCatalog()}

	body := []byte(`{"name":"Ann","email":"ann@example.com","selectedPackage":"` +
		primitive.NewObjectID().Hex() + `","date":"2026-09-15","guests":2}`)
	w := postBooking(t, api, body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Selected package not found", errMessage(t, w))
	assert.Empty(t, store.items)
}

func TestCreateBookingRejectsInvalidGuests(t *testing.T) {
	pkg := testPackage(500)
	store := newFakeStore()
	api := &API{Store: store, Catalog: newFakeCatalog(pkg)}

	body := []byte(`{"name":"Ann","email":"ann@example.com","selectedPackage":"` +
		pkg.ID.Hex() + `","date":"2026-09-15","guests":0}`)
	w := postBooking(t, api, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "guests must be at least 1", errMessage(t, w))
	assert.Empty(t, store.items)
}

func TestBookingTotalPriceLifecycle(t *testing.T) {
	pkg := testPackage(500)
	cat := newFakeCatalog(pkg)
	store := newFakeStore()
	api := &API{Store: store, Catalog: cat}
	ctx := context.Background()

	// create with 3 guests: 500 x 3
	body := fmt.Sprintf(`{"name":"Ann","email":"ann@example.com","selectedPackage":"%s","date":"2026-09-15","guests":3}`,
		pkg.ID.Hex())
	w := postBooking(t, api, []byte(body))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeDetail(t, w)
	assert.Equal(t, 1500.0, created.TotalPrice)

	stored, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, stored.TotalPrice)

	// guests -> 5 recomputes from the effective guest count
	w = putBooking(t, api, created.ID.Hex(), []byte(`{"guests":5}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2500.0, decodeDetail(t, w).TotalPrice)
	stored, _ = store.FindByID(ctx, created.ID)
	assert.Equal(t, 2500.0, stored.TotalPrice)

	// a later package price change does not reach back into the booking
	pkg.Price = 600
	stored, _ = store.FindByID(ctx, created.ID)
	assert.Equal(t, 2500.0, stored.TotalPrice)

	// a patch not touching guests or the reference keeps the stale total
	w = putBooking(t, api, created.ID.Hex(), []byte(`{"name":"Anna"}`))
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ = store.FindByID(ctx, created.ID)
	assert.Equal(t, "Anna", stored.Name)
	assert.Equal(t, 2500.0, stored.TotalPrice)

	// switching packages recomputes from the new package's price
	pricier := testPackage(800)
	cat.pkgs[pricier.ID.Hex()] = pricier
	w = putBooking(t, api, created.ID.Hex(), fmt.Appendf(nil, `{"selectedPackage":"%s"}`, pricier.ID.Hex()))
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ = store.FindByID(ctx, created.ID)
	assert.Equal(t, pricier.ID, stored.SelectedPackage)
	assert.Equal(t, 4000.0, stored.TotalPrice)
}

func TestCreateBookingIgnoresClientTotalPrice(t *testing.T) {
	pkg := testPackage(500)
	store := newFakeStore()
	api := &API{Store: store, Catalog: newFakeCatalog(pkg)}

	body := fmt.Sprintf(`{"name":"Ann","email":"ann@example.com","selectedPackage":"%s","date":"2026-09-15","guests":2,"totalPrice":1}`,
		pkg.ID.Hex())
	w := postBooking(t, api, []byte(body))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeDetail(t, w)
	assert.Equal(t, 1000.0, created.TotalPrice)

	stored, _ := store.FindByID(context.Background(), created.ID)
	assert.Equal(t, 1000.0, stored.TotalPrice)
}

func TestUpdateBookingIgnoresClientTotalPrice(t *testing.T) {
	pkg := testPackage(500)
	store := newFakeStore()
	api := &API{Store: store, Catalog: newFakeCatalog(pkg)}

	id, err := store.Insert(context.Background(), models.Booking{
		Name: "Ann", Email: "ann@example.com", SelectedPackage: pkg.ID, Guests: 2, TotalPrice: 1000,
	})
	require.NoError(t, err)

	w := putBooking(t, api, id.Hex(), []byte(`{"guests":4,"totalPrice":1}`))
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ := store.FindByID(context.Background(), id)
	assert.Equal(t, 2000.0, stored.TotalPrice)
}

func TestUpdateBookingUnresolvedReferenceIs404(t *testing.T) {
	pkg := testPackage(500)
	store := newFakeStore()
	api := &API{Store: store, Catalog: newFakeCatalog(pkg)}

	id, err := store.Insert(context.Background(), models.Booking{
		Name: "Ann", Email: "ann@example.com", SelectedPackage: pkg.ID, Guests: 2, TotalPrice: 1000,
	})
	require.NoError(t, err)

	body := fmt.Appendf(nil, `{"selectedPackage":"%s"}`, primitive.NewObjectID().Hex())
	w := putBooking(t, api, id.Hex(), body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Selected package not found", errMessage(t, w))

	stored, _ := store.FindByID(context.Background(), id)
	assert.Equal(t, 1000.0, stored.TotalPrice)
	assert.Equal(t, pkg.ID, stored.SelectedPackage)
}

func TestUpdateBookingUnknownIDIs404(t *testing.T) {
	api := &API{Store: newFakeStore(), Catalog: newFakeCatalog()}

	w := putBooking(t, api, primitive.NewObjectID().Hex(), []byte(`{"name":"Ann"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Booking not found", errMessage(t, w))
}

func TestGetBookingStoreFailureIs500(t *testing.T) {
	store := newFakeStore()
	store.failErr = errors.New("connection reset")
	api := &API{Store: store, Catalog: newFakeCatalog()}

	w := getBooking(t, api, primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetBookingResolverFailureIs500(t *testing.T) {
	// catalog outage during expansion is a 500, not a null package
	store := newFakeStore()
	id, err := store.Insert(context.Background(), models.Booking{
		Name: "Ann", Email: "ann@example.com", SelectedPackage: primitive.NewObjectID(), Guests: 1,
	})
	require.NoError(t, err)
	api := &API{Store: store, Catalog: failingCatalog{}}

	w := getBooking(t, api, id.Hex())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error resolving package", errMessage(t, w))
}

func TestListBookingsNewestFirst(t *testing.T) {
	pkg := testPackage(500)
	store := newFakeStore()
	api := &API{Store: store, Catalog: newFakeCatalog(pkg)}

	first, _ := store.Insert(context.Background(), models.Booking{Name: "A", Email: "a@example.com", SelectedPackage: pkg.ID, Guests: 1})
	second, _ := store.Insert(context.Background(), models.Booking{Name: "B", Email: "b@example.com", SelectedPackage: pkg.ID, Guests: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	w := httptest.NewRecorder()
	api.ListBookings(w, req, httprouter.Params{})
	require.Equal(t, http.StatusOK, w.Code)

	var details []models.BookingDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	require.Len(t, details, 2)
	assert.Equal(t, second, details[0].ID)
	assert.Equal(t, first, details[1].ID)
}

func TestDeleteBookingUnknownIDIs404(t *testing.T) {
	api := &API{Store: newFakeStore()}

	req := httptest.NewRequest(http.MethodDelete, "/api/bookings/x", nil)
	w := httptest.NewRecorder()
	api.DeleteBooking(w, req, httprouter.Params{{Key: "id", Value: primitive.NewObjectID().Hex()}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Booking not found", errMessage(t, w))
}
