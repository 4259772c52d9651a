package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/google/uuid"

	"github.com/tryonfusion/studio/models"
	"github.com/tryonfusion/studio/studio"
	"github.com/tryonfusion/studio/utils"
)

// CreateModelRequest represents the payload for base-model generation
type CreateModelRequest struct {
	PersonImage string `json:"person_image"` // S3 key or URL; profile photo when empty
	Gender      string `json:"gender"`
	SkinTone    string `json:"skin_tone"`
	HairColor   string `json:"hair_color"`
	StyleText   string `json:"style_text"`
}

// ApplyGarmentRequest represents the payload for layering a garment
type ApplyGarmentRequest struct {
	Garment models.Garment `json:"garment"`
}

// SelectPoseRequest represents the payload for a pose change
type SelectPoseRequest struct {
	PoseIndex int `json:"pose_index"`
}

// presignState resolves every image reference in the view to a presigned
// URL so the client can render it directly.
func presignState(ctx context.Context, view *studio.StateView) {
	view.ModelImage = utils.PresignImageURL(ctx, view.ModelImage)
	view.DisplayImage = utils.PresignImageURL(ctx, view.DisplayImage)
	for i := range view.History {
		for pose, img := range view.History[i].PoseImages {
			view.History[i].PoseImages[pose] = utils.PresignImageURL(ctx, img)
		}
	}
	for i := range view.Wardrobe {
		view.Wardrobe[i].Image = utils.PresignImageURL(ctx, view.Wardrobe[i].Image)
	}
}

func respondState(w http.ResponseWriter, r *http.Request, view *studio.StateView) {
	presignState(r.Context(), view)
	utils.RespondJSON(w, http.StatusOK, view)
}

// CreateModelHandler generates the base model from a person photo and starts
// a fresh session
func CreateModelHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Create Model API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	personImage := req.PersonImage
	if personImage == "" {
		personImage = profilePhotoFor(userID)
	}
	if personImage == "" {
		utils.RespondError(w, &logMessageBuilder, "No person photo: upload a profile photo or pass person_image", http.StatusBadRequest)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Creating model for user %s", userID))

	// The generation itself can be slow; don't tie it to the client's
	// socket timeout.
	genCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	view, err := appStudio.CreateModel(genCtx, userID, personImage, studio.ModelOptions{
		Gender:    req.Gender,
		SkinTone:  req.SkinTone,
		HairColor: req.HairColor,
		StyleText: req.StyleText,
	})
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Model generation failed: %v", err))
		respondCommandError(w, nil, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Model generated")
	respondState(w, r, view)
}

// StudioStateHandler returns the live session state, or active=false when
// the user has no model yet
func StudioStateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	view, err := appStudio.State(r.Context(), userID)
	if err != nil {
		// No session is a normal state for a new user, not an error.
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}
	presignState(r.Context(), view)
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"active": true, "state": view})
}

// ApplyGarmentHandler layers a garment onto the current look
func ApplyGarmentHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Apply Garment API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ApplyGarmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Garment.Image == "" {
		utils.RespondError(w, &logMessageBuilder, "garment.image is required", http.StatusBadRequest)
		return
	}
	if req.Garment.ID == "" {
		req.Garment.ID = uuid.New().String()
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Applying garment %s for user %s", req.Garment.ID, userID))

	genCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	view, err := appStudio.ApplyGarment(genCtx, userID, req.Garment)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Apply garment failed: %v", err))
		respondCommandError(w, nil, err)
		return
	}

	respondState(w, r, view)
}

// UndoHandler removes the top garment by stepping the history cursor back
func UndoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	view, err := appStudio.Retreat(r.Context(), userID)
	if err != nil {
		respondCommandError(w, nil, err)
		return
	}
	respondState(w, r, view)
}

// SelectPoseHandler moves the pose cursor, generating the pose image on
// first visit
func SelectPoseHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Select Pose API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SelectPoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Pose %d for user %s", req.PoseIndex, userID))

	genCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	view, err := appStudio.SelectPose(genCtx, userID, req.PoseIndex)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Pose change failed: %v", err))
		respondCommandError(w, nil, err)
		return
	}
	respondState(w, r, view)
}

// ChangeBackgroundHandler re-renders the current look against a new
// background: either an uploaded file (multipart) or a reference (JSON)
func ChangeBackgroundHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Change Background API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var bg studio.Background
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("background")
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, "background file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, "Error reading file", http.StatusBadRequest)
			return
		}
		bg = studio.Background{Data: data, MimeType: header.Header.Get("Content-Type")}
	} else {
		var req struct {
			Reference string `json:"reference"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" {
			utils.RespondError(w, &logMessageBuilder, "reference is required", http.StatusBadRequest)
			return
		}
		bg = studio.Background{Ref: req.Reference}
	}

	genCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	view, err := appStudio.ChangeBackground(genCtx, userID, bg)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Background change failed: %v", err))
		respondCommandError(w, nil, err)
		return
	}
	respondState(w, r, view)
}

// EnhanceHandler re-renders the current display image at higher fidelity
func EnhanceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	genCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	view, err := appStudio.Enhance(genCtx, userID)
	if err != nil {
		respondCommandError(w, nil, err)
		return
	}
	respondState(w, r, view)
}

// StartOverHandler clears the live session and its durable record
func StartOverHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := appStudio.StartOver(r.Context(), userID); err != nil {
		respondCommandError(w, nil, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Session cleared"})
}

// profilePhotoFor looks up the user's stored profile photo key, empty when
// none is set.
func profilePhotoFor(userID string) string {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := utils.GetCollection(usersCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		return ""
	}
	return user.ProfilePhoto
}
