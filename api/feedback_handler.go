package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tryonfusion/studio/models"
	"github.com/tryonfusion/studio/utils"
)

// FeedbackRequest represents the payload for feedback on a generated look
type FeedbackRequest struct {
	Message     string `json:"message"`
	Rating      int    `json:"rating"`
	ImageKey    string `json:"image_key"`
	ContactBack bool   `json:"contact_back"`
}

// FeedbackHandler handles feedback submission
func FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := strings.Builder{}
	utils.AddToLogMessage(&logMessageBuilder, "[Feedback API]")
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userIDStr, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid user ID", http.StatusUnauthorized)
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		utils.RespondError(w, &logMessageBuilder, "message is required", http.StatusBadRequest)
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		utils.RespondError(w, &logMessageBuilder, "rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	feedback := models.Feedback{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Message:     req.Message,
		Rating:      req.Rating,
		ImageKey:    req.ImageKey,
		ContactBack: req.ContactBack,
		CreatedAt:   time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := utils.GetCollection("feedbacks")
	if _, err := collection.InsertOne(ctx, feedback); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error saving feedback", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"message": "Feedback submitted successfully"})
}
