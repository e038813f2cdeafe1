package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultImageURL is used when a package is created without an image.
const DefaultImageURL = "https://source.unsplash.com/random/300x200/?travel"

// Package is a purchasable travel itinerary with a per-guest price.
type Package struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Destination string             `json:"destination" bson:"destination"`
	Price       float64            `json:"price" bson:"price"`
	Duration    int                `json:"duration" bson:"duration"`
	Description string             `json:"description" bson:"description"`
	ImageURL    string             `json:"imageUrl" bson:"imageUrl"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Booking is a reservation against exactly one package. TotalPrice is always
// derived on the server from the referenced package's price and the guest
// count; it is never taken from the client.
type Booking struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Email           string             `json:"email" bson:"email"`
	SelectedPackage primitive.ObjectID `json:"selectedPackage" bson:"selectedPackage"`
	Date            time.Time          `json:"date" bson:"date"`
	Guests          int                `json:"guests" bson:"guests"`
	TotalPrice      float64            `json:"totalPrice" bson:"totalPrice"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BookingDetail is a booking with its package reference expanded. Package is
// nil when the referenced package has been deleted since the booking was made.
type BookingDetail struct {
	Booking
	Package *Package `json:"package"`
}

// PackagePayload carries the client-supplied fields of a package create.
type PackagePayload struct {
	Title       string  `json:"title"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
	Duration    int     `json:"duration"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
}

// ToPackage validates the payload and builds a package record, applying the
// image default when none was supplied. Timestamps and the id are left for
// the caller.
func (p *PackagePayload) ToPackage() (Package, error) {
	pkg := Package{
		Title:       strings.TrimSpace(p.Title),
		Destination: strings.TrimSpace(p.Destination),
		Price:       p.Price,
		Duration:    p.Duration,
		Description: p.Description,
		ImageURL:    strings.TrimSpace(p.ImageURL),
	}
	if pkg.ImageURL == "" {
		pkg.ImageURL = DefaultImageURL
	}
	return pkg, ValidatePackage(&pkg)
}

// ValidatePackage enforces the package invariants: required text fields
// non-empty after trimming, price >= 0, duration >= 1.
func ValidatePackage(pkg *Package) error {
	if pkg.Title == "" {
		return errors.New("title is required")
	}
	if pkg.Destination == "" {
		return errors.New("destination is required")
	}
	if pkg.Description == "" {
		return errors.New("description is required")
	}
	if pkg.Price < 0 {
		return errors.New("price must not be negative")
	}
	if pkg.Duration < 1 {
		return errors.New("duration must be at least 1 day")
	}
	return nil
}

// PackageUpdate is a partial package patch. Pointer fields distinguish
// "absent" from a zero value so a PUT can set price to 0.
type PackageUpdate struct {
	Title       *string  `json:"title"`
	Destination *string  `json:"destination"`
	Price       *float64 `json:"price"`
	Duration    *int     `json:"duration"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"imageUrl"`
}

// Apply merges the supplied fields onto pkg and re-validates the result.
func (u *PackageUpdate) Apply(pkg *Package) error {
	if u.Title != nil {
		pkg.Title = strings.TrimSpace(*u.Title)
	}
	if u.Destination != nil {
		pkg.Destination = strings.TrimSpace(*u.Destination)
	}
	if u.Price != nil {
		pkg.Price = *u.Price
	}
	if u.Duration != nil {
		pkg.Duration = *u.Duration
	}
	if u.Description != nil {
		pkg.Description = *u.Description
	}
	if u.ImageURL != nil {
		pkg.ImageURL = strings.TrimSpace(*u.ImageURL)
		if pkg.ImageURL == "" {
			pkg.ImageURL = DefaultImageURL
		}
	}
	return ValidatePackage(pkg)
}

// BookingPayload carries the client-supplied fields of a booking create.
// There is deliberately no totalPrice field here.
type BookingPayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	SelectedPackage string `json:"selectedPackage"`
	Date            string `json:"date"`
	Guests          *int   `json:"guests"`
}

// ToBooking validates the payload and builds a booking record without its
// package reference resolved; SelectedPackage, TotalPrice, timestamps and the
// id are left for the caller.
func (b *BookingPayload) ToBooking() (Booking, error) {
	bk := Booking{
		Name:   strings.TrimSpace(b.Name),
		Email:  strings.TrimSpace(b.Email),
		Guests: 1,
	}
	if b.Guests != nil {
		bk.Guests = *b.Guests
	}
	if bk.Name == "" {
		return bk, errors.New("name is required")
	}
	if bk.Email == "" {
		return bk, errors.New("email is required")
	}
	if b.SelectedPackage == "" {
		return bk, errors.New("selectedPackage is required")
	}
	if b.Date == "" {
		return bk, errors.New("date is required")
	}
	date, err := ParseDate(b.Date)
	if err != nil {
		return bk, errors.New("invalid date")
	}
	bk.Date = date
	if bk.Guests < 1 {
		return bk, errors.New("guests must be at least 1")
	}
	return bk, nil
}

// BookingUpdate is a partial booking patch. Clients cannot patch totalPrice;
// it is recomputed whenever the package reference or guest count changes.
type BookingUpdate struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	SelectedPackage *string `json:"selectedPackage"`
	Date            *string `json:"date"`
	Guests          *int    `json:"guests"`
}

// TouchesPrice reports whether applying the patch requires recomputing the
// booking's total price.
func (u *BookingUpdate) TouchesPrice() bool {
	return u.SelectedPackage != nil || u.Guests != nil
}

// Apply merges the supplied fields onto bk and re-validates the result. The
// package reference itself is resolved by the caller before Apply so that an
// unresolvable reference fails the whole update.
func (u *BookingUpdate) Apply(bk *Booking) error {
	if u.Name != nil {
		bk.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		bk.Email = strings.TrimSpace(*u.Email)
	}
	if u.Date != nil {
		date, err := ParseDate(*u.Date)
		if err != nil {
			return errors.New("invalid date")
		}
		bk.Date = date
	}
	if u.Guests != nil {
		bk.Guests = *u.Guests
	}
	if bk.Name == "" {
		return errors.New("name is required")
	}
	if bk.Email == "" {
		return errors.New("email is required")
	}
	if bk.Guests < 1 {
		return errors.New("guests must be at least 1")
	}
	return nil
}

// ParseDate accepts the plain calendar form used by the booking form as well
// as a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
