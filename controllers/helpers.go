package controllers

import (
	"errors"
	"net/http"

	"bizpro-backend/services"
	"bizpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// companyIDFromContext reads the company set by the auth middleware.
func companyIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return uuid.Nil, false
	}
	companyUUID, err := uuid.Parse(companyID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
		return uuid.Nil, false
	}
	return companyUUID, true
}

func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return uuid.Nil, false
	}
	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userUUID, true
}

func uuidParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// respondWithServiceError maps service errors to HTTP status codes.
func respondWithServiceError(c *gin.Context, logger *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateOrder), errors.Is(err, services.ErrScheduleConflict):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrLockBusy):
		utils.RespondWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Errorw("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
