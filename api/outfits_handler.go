package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tryonfusion/studio/utils"
)

// SaveOutfitRequest represents the payload for saving the current look
type SaveOutfitRequest struct {
	Name string `json:"name"`
}

// LoadOutfitRequest represents the payload for loading a saved outfit
type LoadOutfitRequest struct {
	OutfitID string `json:"outfit_id"`
}

// OutfitsHandler serves the saved-outfit catalog: GET lists, POST saves the
// current look, DELETE removes by id
func OutfitsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Outfits API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		outfits := appStudio.Outfits(r.Context(), userID)
		for i := range outfits {
			outfits[i].Preview = utils.PresignImageURL(r.Context(), outfits[i].Preview)
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"outfits": outfits})

	case http.MethodPost:
		var req SaveOutfitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
			return
		}
		outfit, err := appStudio.SaveOutfit(r.Context(), userID, req.Name)
		if err != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Save outfit failed: %v", err))
			respondCommandError(w, nil, err)
			return
		}
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Outfit %s saved", outfit.ID))
		saved := *outfit
		saved.Preview = utils.PresignImageURL(r.Context(), saved.Preview)
		utils.RespondJSON(w, http.StatusCreated, saved)

	case http.MethodDelete:
		outfitID := r.URL.Query().Get("id")
		if outfitID == "" {
			utils.RespondError(w, &logMessageBuilder, "id query parameter is required", http.StatusBadRequest)
			return
		}
		if err := appStudio.DeleteOutfit(r.Context(), userID, outfitID); err != nil {
			respondCommandError(w, nil, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Outfit deleted"})

	default:
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// LoadOutfitHandler replaces the live history with a saved outfit
func LoadOutfitHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Load Outfit API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req LoadOutfitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OutfitID == "" {
		utils.RespondError(w, &logMessageBuilder, "outfit_id is required", http.StatusBadRequest)
		return
	}

	view, err := appStudio.LoadOutfit(r.Context(), userID, req.OutfitID)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Load outfit failed: %v", err))
		respondCommandError(w, nil, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Outfit %s loaded", req.OutfitID))
	respondState(w, r, view)
}
