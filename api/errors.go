package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tryonfusion/studio/gateway"
	"github.com/tryonfusion/studio/studio"
	"github.com/tryonfusion/studio/utils"
)

// respondCommandError maps a studio command failure onto an HTTP status. The
// distinct failure kinds stay distinguishable to the client: offline, busy,
// policy block, empty result, model mismatch and quota all read differently.
func respondCommandError(w http.ResponseWriter, logger *strings.Builder, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, studio.ErrOffline):
		status = http.StatusServiceUnavailable
	case errors.Is(err, studio.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, studio.ErrNoSession):
		status = http.StatusNotFound
	case errors.Is(err, studio.ErrOutfitNotFound):
		status = http.StatusNotFound
	case errors.Is(err, studio.ErrNothingToSave), errors.Is(err, studio.ErrUnknownPose):
		status = http.StatusBadRequest
	case errors.Is(err, studio.ErrModelMismatch):
		status = http.StatusConflict
	case errors.Is(err, gateway.ErrPolicyBlocked):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, gateway.ErrEmptyResult):
		status = http.StatusBadGateway
	case strings.Contains(err.Error(), "429"), strings.Contains(strings.ToLower(err.Error()), "quota"):
		utils.RespondError(w, logger, "Quota exceeded. Please try again later.", http.StatusTooManyRequests)
		return
	}
	utils.RespondError(w, logger, err.Error(), status)
}
