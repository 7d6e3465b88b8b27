package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/foodbridge/foodbridge/internal/services"
	"github.com/foodbridge/foodbridge/pkg/httpapi"
	"github.com/foodbridge/foodbridge/pkg/middleware"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListingHandler handles HTTP requests related to listings.
type ListingHandler struct {
	Service *services.ListingService
}

// NewListingHandler creates a new instance of ListingHandler.
func NewListingHandler(service *services.ListingService) *ListingHandler {
	return &ListingHandler{Service: service}
}

// CreateListingHandler handles listing creation with 1-5 food photos.
// Route-level middleware has already ensured the caller is a donor.
func (h *ListingHandler) CreateListingHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("CreateListingHandler called")

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	donorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.WithError(err).Warn("Failed to parse listing form")
		httpapi.Err(w, httpapi.BadRequest("Invalid multipart payload"))
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		httpapi.Err(w, httpapi.BadRequest("Quantity must be an integer"))
		return
	}

	expiryDate, err := time.Parse(time.RFC3339, r.FormValue("expiryDate"))
	if err != nil {
		httpapi.Err(w, httpapi.BadRequest("Expiry date must be RFC3339"))
		return
	}

	input := &services.CreateListingInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Quantity:      quantity,
		PickupAddress: r.FormValue("pickupAddress"),
		ExpiryDate:    expiryDate,
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["foodPhotos"] {
			file, err := header.Open()
			if err != nil {
				httpapi.Err(w, httpapi.BadRequest("Invalid food photo upload"))
				return
			}
			defer file.Close()
			input.Photos = append(input.Photos, fileUpload(file, header))
		}
	}

	listing, err := h.Service.CreateListing(r.Context(), donorID, input)
	if err != nil {
		log.WithError(err).Warn("Failed to create listing")
		httpapi.Err(w, err)
		return
	}

	httpapi.JSON(w, http.StatusCreated, listing, "Listing created successfully")
}

// ClaimListingHandler reserves an available listing for the caller.
func (h *ListingHandler) ClaimListingHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	claimantID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	listingID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httpapi.Err(w, httpapi.BadRequest("Invalid listing ID"))
		return
	}

	listing, err := h.Service.ClaimListing(r.Context(), listingID, claimantID)
	if err != nil {
		log.WithFields(log.Fields{
			"listingID": listingID.Hex(),
			"userID":    claims.UserID,
		}).WithError(err).Warn("Failed to claim listing")
		httpapi.Err(w, err)
		return
	}

	httpapi.JSON(w, http.StatusOK, listing, "Listing claimed successfully")
}

// GetListingHandler fetches a single listing.
func (h *ListingHandler) GetListingHandler(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Service.GetListing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpapi.Err(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, listing, "Listing fetched successfully")
}

// GetListingsHandler returns the currently available listings.
func (h *ListingHandler) GetListingsHandler(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Service.GetAvailableListings(r.Context())
	if err != nil {
		httpapi.Err(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, listings, "Listings fetched successfully")
}
