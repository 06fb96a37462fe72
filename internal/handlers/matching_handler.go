package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"silverrock/internal/managers"
	"silverrock/internal/schemas"
	"silverrock/internal/utils"
)

type MatchingHdl interface {
	SubmitMatchingRequest(c *gin.Context)
	AcceptMatchingRequest(c *gin.Context)
	RejectMatchingRequest(c *gin.Context)
	GetReceivedRequests(c *gin.Context)
	GetFriends(c *gin.Context)
}

type MatchingHandler struct {
	MatchingManager managers.MatchingMgr
}

var errSenderMismatch = errors.New("sender id does not match the logged in user")

func NewMatchingHandler(matchingMgr managers.MatchingMgr) MatchingHdl {
	return &MatchingHandler{
		MatchingManager: matchingMgr,
	}
}

// SubmitMatchingRequest sends a matching request from the logged in user to the receiver in the body.
func (handler *MatchingHandler) SubmitMatchingRequest(c *gin.Context) {
	userId, err := utils.CurrentUserId(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	payload, err := utils.SanitizedPayload[schemas.MatchingRequestRequest](c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	if payload.SenderId != nil && *payload.SenderId != userId {
		utils.WriteAndLogError(c, schemas.SenderMismatch, http.StatusForbidden, errSenderMismatch)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	request, err := handler.MatchingManager.SubmitRequest(ctx, userId, payload.ReceiverId)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, toMatchingRequestDTO(request), http.StatusCreated)
}

// AcceptMatchingRequest confirms a request the logged in user received.
func (handler *MatchingHandler) AcceptMatchingRequest(c *gin.Context) {
	userId, requestId, ok := parseMatchingParams(c)
	if !ok {
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	request, err := handler.MatchingManager.AcceptRequest(ctx, userId, requestId)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, toMatchingRequestDTO(request), http.StatusOK)
}

// RejectMatchingRequest deletes a pending request the logged in user received.
func (handler *MatchingHandler) RejectMatchingRequest(c *gin.Context) {
	userId, requestId, ok := parseMatchingParams(c)
	if !ok {
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	if err := handler.MatchingManager.RejectRequest(ctx, userId, requestId); err != nil {
		writeManagerError(c, err)
		return
	}

	utils.LogMessageWithFields(c, "info", "Returning response")
	c.Status(http.StatusNoContent)
}

// GetReceivedRequests lists everyone who sent the logged in user a matching request.
func (handler *MatchingHandler) GetReceivedRequests(c *gin.Context) {
	handler.listProfiles(c, handler.MatchingManager.ListReceivedRequests, schemas.NoReceivedRequests)
}

// GetFriends lists everyone whose matching request the logged in user accepted.
func (handler *MatchingHandler) GetFriends(c *gin.Context) {
	handler.listProfiles(c, handler.MatchingManager.ListConfirmedFriends, schemas.NoFriends)
}

type profileLister func(ctx context.Context, callerId int64) ([]*schemas.UserProfile, error)

func (handler *MatchingHandler) listProfiles(c *gin.Context, list profileLister, emptyErr *schemas.CustomError) {
	userId, err := utils.CurrentUserId(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	profiles, err := list(ctx, userId)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	if len(profiles) == 0 {
		utils.WriteAndLogError(c, emptyErr, http.StatusNotFound, errors.New(emptyErr.Message))
		return
	}

	utils.WriteAndLogResponse(c, &schemas.RecordsDTO{Records: toUserProfileDTOs(profiles)}, http.StatusOK)
}

// parseMatchingParams reads the caller and the matching id of the path.
// On failure the error response is already written.
func parseMatchingParams(c *gin.Context) (int64, int64, bool) {
	userId, err := utils.CurrentUserId(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return 0, 0, false
	}

	requestId, err := strconv.ParseInt(c.Param(utils.MatchingIdKey), 10, 64)
	if err != nil || requestId <= 0 {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, errors.New("invalid matching id"))
		return 0, 0, false
	}

	return userId, requestId, true
}

func toMatchingRequestDTO(request *schemas.MatchingRequest) *schemas.MatchingRequestDTO {
	return &schemas.MatchingRequestDTO{
		MatchingId:   request.ID,
		SenderId:     request.SenderID,
		ReceiverId:   request.ReceiverID,
		Success:      request.Success,
		CreationDate: request.CreatedAt.Format(time.RFC3339),
	}
}

func toUserProfileDTOs(profiles []*schemas.UserProfile) []*schemas.UserProfileDTO {
	dtos := make([]*schemas.UserProfileDTO, 0, len(profiles))
	for _, profile := range profiles {
		dtos = append(dtos, &schemas.UserProfileDTO{
			UserId:       profile.UserID,
			Gender:       profile.Gender,
			Nickname:     profile.Nickname,
			Birth:        profile.Birth,
			Region:       profile.Region,
			Introduction: profile.Introduction,
			ProfileImage: toProfileImageDTO(profile.Image),
		})
	}
	return dtos
}

func toProfileImageDTO(profile *schemas.Profile) *schemas.ProfileImageDTO {
	if profile == nil {
		return nil
	}
	return &schemas.ProfileImageDTO{ImageURL: profile.ImageURL, FileName: profile.FileName}
}
