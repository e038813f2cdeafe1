package catalog

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"wayfare/models"
	"wayfare/utils"

	"github.com/disintegration/imaging"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const maxImageSize = 10 << 20 // 10 MB

// POST /api/packages/:id/image
//
// Accepts a multipart "image" field, stores the original plus a 300px-wide
// thumbnail under the upload dir and points the package imageUrl at the
// stored file.
func (api *API) UploadImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	oid, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Package not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
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

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to decode image")
		return
	}

	fileName := oid.Hex() + ".jpg"
	picDir := filepath.Join(api.UploadDir, "packagepic")
	thumbDir := filepath.Join(picDir, "thumb")
	if err := os.MkdirAll(thumbDir, 0755); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create upload directory")
		return
	}

	if err := imaging.Save(img, filepath.Join(picDir, fileName)); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save image")
		return
	}
	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(thumbDir, fileName)); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save thumbnail")
		return
	}

	pkg.ImageURL = "/static/packagepic/" + fileName
	pkg.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{"imageUrl": pkg.ImageURL, "updatedAt": pkg.UpdatedAt}}
	if _, err := api.Store.Packages.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating package")
		return
	}

	api.Cache.DropPackage(ctx, oid.Hex())
	api.Hub.Broadcast("packages")
	utils.RespondWithJSON(w, http.StatusOK, pkg)
}
