package bookings

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"wayfare/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func receiptSecret() []byte {
	if s := os.Getenv("RECEIPT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("wayfare-receipt-secret")
}

// ReceiptPayload returns the signed QR content: bookingID|packageID|timestamp|signature.
func ReceiptPayload(bookingID, packageID string) string {
	data := fmt.Sprintf("%s|%s|%d", bookingID, packageID, time.Now().Unix())

	h := hmac.New(sha256.New, receiptSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// GET /api/bookings/:id/receipt
//
// Streams a PDF confirmation with a signed QR code. A booking whose package
// has been deleted still gets a receipt with the package marked unavailable.
func (api *API) PrintReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	oid, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
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

	title := "Package unavailable"
	destination := "-"
	duration := "-"
	if pkg, err := api.Catalog.PackageByID(ctx, bk.SelectedPackage.Hex()); err == nil {
		title = pkg.Title
		destination = pkg.Destination
		duration = fmt.Sprintf("%d days", pkg.Duration)
	}

	qrPNG, err := qrcode.Encode(ReceiptPayload(bk.ID.Hex(), bk.SelectedPackage.Hex()), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Booking Confirmation")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Booking ID: %s", bk.ID.Hex()))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Traveler: %s (%s)", bk.Name, bk.Email))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Package: %s", title))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Destination: %s", destination))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Duration: %s", duration))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Travel date: %s", bk.Date.Format("2006-01-02")))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Guests: %d", bk.Guests))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Total price: %.2f", bk.TotalPrice))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=booking-"+bk.ID.Hex()+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
