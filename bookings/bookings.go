package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"wayfare/catalog"
	"wayfare/db"
	"wayfare/live"
	"wayfare/models"
	"wayfare/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PackageResolver is the slice of the catalog the booking service needs:
// resolving a package reference to its current record. Tests inject a fake.
type PackageResolver interface {
	PackageByID(ctx context.Context, id string) (*models.Package, error)
}

// API owns the booking endpoints.
type API struct {
	Store   Store
	Catalog PackageResolver
	Hub     *live.Hub
}

func New(store *db.Store, cat PackageResolver, hub *live.Hub) *API {
	return &API{Store: NewStore(store), Catalog: cat, Hub: hub}
}

// Total derives a booking's price from its package and guest count. Every
// write path goes through this one spot; the client never supplies it.
func Total(pkg *models.Package, guests int) float64 {
	return pkg.Price * float64(guests)
}

// expand attaches the current package record to a booking. A reference that
// no longer resolves yields a nil Package, marking the package unavailable;
// any other resolver failure is returned so the request fails instead of
// masquerading as a deleted package.
func (api *API) expand(ctx context.Context, bk models.Booking) (models.BookingDetail, error) {
	detail := models.BookingDetail{Booking: bk}
	pkg, err := api.Catalog.PackageByID(ctx, bk.SelectedPackage.Hex())
	switch {
	case err == nil:
		detail.Package = pkg
	case errors.Is(err, catalog.ErrNotFound):
		// package deleted since the booking was made; keep the null marker
	default:
		return detail, err
	}
	return detail, nil
}

// GET /api/bookings
func (api *API) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := api.Store.List(ctx)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching bookings")
		return
	}

	details := make([]models.BookingDetail, 0, len(list))
	for _, bk := range list {
		detail, err := api.expand(ctx, bk)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error resolving package")
			return
		}
		details = append(details, detail)
	}

	utils.RespondWithJSON(w, http.StatusOK, details)
}

// GET /api/bookings/:id
func (api *API) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	oid, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	bk, err := api.Store.FindByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching booking")
		return
	}

	detail, err := api.expand(ctx, bk)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error resolving package")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, detail)
}

// POST /api/bookings
func (api *API) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload models.BookingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if payload.SelectedPackage == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "selectedPackage is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// resolve the reference first so a dead reference fails before any
	// other validation or write
	pkg, err := api.Catalog.PackageByID(ctx, payload.SelectedPackage)
	if errors.Is(err, catalog.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Selected package not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error resolving package")
		return
	}

	bk, err := payload.ToBooking()
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	bk.SelectedPackage = pkg.ID
	bk.TotalPrice = Total(pkg, bk.Guests)
	bk.CreatedAt = now
	bk.UpdatedAt = now

	id, err := api.Store.Insert(ctx, bk)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating booking")
		return
	}
	bk.ID = id

	api.Hub.Broadcast("bookings")
	utils.RespondWithJSON(w, http.StatusCreated, models.BookingDetail{Booking: bk, Package: pkg})
}

// PUT /api/bookings/:id
func (api *API) UpdateBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	oid, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	var patch models.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	bk, err := api.Store.FindByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching booking")
		return
	}

	// A patch touching the package reference or the guest count invalidates
	// the stored total; resolve the effective package first, then recompute
	// from the effective values.
	var resolved *models.Package
	if patch.TouchesPrice() {
		ref := bk.SelectedPackage.Hex()
		if patch.SelectedPackage != nil {
			ref = *patch.SelectedPackage
		}
		pkg, err := api.Catalog.PackageByID(ctx, ref)
		if errors.Is(err, catalog.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Selected package not found")
			return
		}
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error resolving package")
			return
		}
		resolved = pkg
	}

	if err := patch.Apply(&bk); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if resolved != nil {
		bk.SelectedPackage = resolved.ID
		bk.TotalPrice = Total(resolved, bk.Guests)
	}
	bk.UpdatedAt = time.Now().UTC()

	if err := api.Store.Update(ctx, oid, bk); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating booking")
		return
	}

	api.Hub.Broadcast("bookings")
	if resolved != nil {
		utils.RespondWithJSON(w, http.StatusOK, models.BookingDetail{Booking: bk, Package: resolved})
		return
	}
	detail, err := api.expand(ctx, bk)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error resolving package")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, detail)
}

// DELETE /api/bookings/:id
func (api *API) DeleteBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	oid, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := api.Store.Delete(ctx, oid)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error deleting booking")
		return
	}
	if count == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	api.Hub.Broadcast("bookings")
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Booking deleted successfully"})
}
