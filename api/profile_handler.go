package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tryonfusion/studio/utils"
)

// UploadProfilePhotoHandler stores the user's person photo, the input for
// base-model generation
func UploadProfilePhotoHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Upload Profile Photo API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid user ID", http.StatusUnauthorized)
		return
	}

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "photo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	objectKey := fmt.Sprintf("profiles/%s/%s%s", userID, uuid.New().String(), ext)
	key, err := utils.UploadFileToS3(r.Context(), file, objectKey, header.Header.Get("Content-Type"))
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error uploading file: %v", err), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := utils.GetCollection(usersCollection)
	update := bson.M{"$set": bson.M{"profile_photo": key, "updated_at": time.Now()}}
	if _, err := collection.UpdateOne(ctx, bson.M{"_id": objID}, update); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Profile photo updated for %s", userID))
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"photo":     key,
		"photo_url": utils.PresignImageURL(r.Context(), key),
	})
}
