package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"wayfare/db"
	"wayfare/live"
	"wayfare/models"
	"wayfare/rdx"
	"wayfare/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a package id does not resolve to a record.
var ErrNotFound = errors.New("package not found")

// API owns the package catalog endpoints. The booking service resolves
// package references through PackageByID, never through the collection
// directly.
type API struct {
	Store     *db.Store
	Cache     *rdx.Cache
	Hub       *live.Hub
	UploadDir string
}

func New(store *db.Store, cache *rdx.Cache, hub *live.Hub, uploadDir string) *API {
	return &API{Store: store, Cache: cache, Hub: hub, UploadDir: uploadDir}
}

// PackageByID looks a package up by its hex id, consulting the cache first.
func (api *API) PackageByID(ctx context.Context, id string) (*models.Package, error) {
	if pkg, ok := api.Cache.GetPackage(ctx, id); ok {
		return pkg, nil
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var pkg models.Package
	err = api.Store.Packages.FindOne(ctx, bson.M{"_id": oid}).Decode(&pkg)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	api.Cache.SetPackage(ctx, &pkg)
	return &pkg, nil
}

// GET /api/packages
func (api *API) ListPackages(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	packages, err := utils.FindAndDecode[models.Package](ctx, api.Store.Packages, bson.M{}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching packages")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, packages)
}

// GET /api/packages/:id
func (api *API) GetPackage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pkg, err := api.PackageByID(ctx, ps.ByName("id"))
	if err == ErrNotFound {
		utils.RespondWithError(w, http.StatusNotFound, "Package not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching package")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pkg)
}

// POST /api/packages
func (api *API) CreatePackage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload models.PackagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	pkg, err := payload.ToPackage()
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := api.Store.Packages.InsertOne(ctx, pkg)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating package")
		return
	}
	pkg.ID = result.InsertedID.(primitive.ObjectID)

	api.Hub.Broadcast("packages")
	utils.RespondWithJSON(w, http.StatusCreated, pkg)
}

// PUT /api/packages/:id
func (api *API) UpdatePackage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	oid, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Package not found")
		return
	}

	var patch models.PackageUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var pkg models.Package
	if err := api.Store.Packages.FindOne(ctx, bson.M{"_id": oid}).Decode(&pkg); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Package not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching package")
		return
	}

	// merge, then re-validate the merged record
	if err := patch.Apply(&pkg); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	pkg.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"title":       pkg.Title,
		"destination": pkg.Destination,
		"price":       pkg.Price,
		"duration":    pkg.Duration,
		"description": pkg.Description,
		"imageUrl":    pkg.ImageURL,
		"updatedAt":   pkg.UpdatedAt,
	}}
	if _, err := api.Store.Packages.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating package")
		return
	}

	api.Cache.DropPackage(ctx, oid.Hex())
	api.Hub.Broadcast("packages")
	utils.RespondWithJSON(w, http.StatusOK, pkg)
}

// DELETE /api/packages/:id
//
// Bookings referencing the package are left untouched; their reads expand to
// a null package from then on.
func (api *API) DeletePackage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	oid, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Package not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := api.Store.Packages.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error deleting package")
		return
	}
	if result.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Package not found")
		return
	}

	api.Cache.DropPackage(ctx, oid.Hex())
	api.Hub.Broadcast("packages")
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Package deleted successfully"})
}
