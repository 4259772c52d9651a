package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tryonfusion/studio/models"
	"github.com/tryonfusion/studio/utils"
)

// GalleryResponse represents the response structure for the gallery API
type GalleryResponse struct {
	Images      []models.Generation `json:"images"`
	Total       int64               `json:"total"`
	CurrentPage int                 `json:"current_page"`
	TotalPages  int                 `json:"total_pages"`
}

// GalleryHandler pages through the user's past generations, newest first
func GalleryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page := 1
	limit := 10
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	collection := utils.GetCollection("generations")
	filter := bson.M{"user_id": userID, "status": "completed", "is_deleted": false}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondError(w, nil, "Failed to fetch data", http.StatusInternalServerError)
		return
	}

	skip := (page - 1) * limit
	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}}) // Show latest first
	findOptions.SetSkip(int64(skip))
	findOptions.SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		utils.RespondError(w, nil, "Failed to fetch data", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var generations []models.Generation
	if err = cursor.All(ctx, &generations); err != nil {
		utils.RespondError(w, nil, "Failed to decode data", http.StatusInternalServerError)
		return
	}

	for i := range generations {
		generations[i].ImageKey = utils.PresignImageURL(r.Context(), generations[i].ImageKey)
	}

	// Ensure empty slice is returned as [] instead of null
	if generations == nil {
		generations = []models.Generation{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	utils.RespondJSON(w, http.StatusOK, GalleryResponse{
		Images:      generations,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
	})
}
