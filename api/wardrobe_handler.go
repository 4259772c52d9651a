package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tryonfusion/studio/models"
	"github.com/tryonfusion/studio/utils"
)

// ImportGarmentRequest represents the payload for importing a garment from a
// retail product page
type ImportGarmentRequest struct {
	URL string `json:"url"`
}

// UploadGarmentHandler accepts a garment photo upload and returns the
// garment record to apply
func UploadGarmentHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Upload Garment API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("garment")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "garment file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	ext := filepath.Ext(header.Filename)
	objectKey := fmt.Sprintf("garments/%s/%s%s", userID, uuid.New().String(), ext)
	key, err := utils.UploadFileToS3(r.Context(), file, objectKey, header.Header.Get("Content-Type"))
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error uploading file: %v", err), http.StatusInternalServerError)
		return
	}

	garment := models.Garment{
		ID:    uuid.New().String(),
		Name:  name,
		Image: key,
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Garment uploaded: %s", garment.ID))

	preview := garment
	preview.Image = utils.PresignImageURL(r.Context(), preview.Image)
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"garment": garment,
		"preview": preview,
	})
}

// ImportGarmentHandler pulls a garment off a retail product page and pins
// its image to S3
func ImportGarmentHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Import Garment API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ImportGarmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		utils.RespondError(w, &logMessageBuilder, "url is required", http.StatusBadRequest)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Importing garment from %s", req.URL))

	garment, err := garmentImporter.ImportGarment(r.Context(), req.URL)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Import failed: %v", err))
		utils.RespondError(w, nil, fmt.Sprintf("Failed to import garment: %v", err), http.StatusBadGateway)
		return
	}

	// Pin the remote image so the garment survives the product page.
	folder := fmt.Sprintf("garments/%s", userID)
	if key, err := utils.FetchImageToS3(r.Context(), garment.Image, folder); err == nil {
		garment.Image = key
	} else {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Could not pin image, keeping remote URL: %v", err))
	}

	preview := *garment
	preview.Image = utils.PresignImageURL(r.Context(), preview.Image)
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"garment": garment,
		"preview": preview,
	})
}
