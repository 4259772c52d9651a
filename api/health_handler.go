package api

import (
	"encoding/json"
	"net/http"

	"github.com/tryonfusion/studio/utils"
)

// HealthzHandler reports process health and the connectivity gate state
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"online": appStudio.Gate().Online(),
	})
}

// ConnectivityHandler toggles the gate manually, for operations and tests.
// The background probe keeps overwriting it either way.
func ConnectivityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, nil, "Invalid request body", http.StatusBadRequest)
		return
	}
	appStudio.Gate().SetOnline(req.Online)
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"online": req.Online})
}
