package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"silverrock/internal/managers"
	"silverrock/internal/schemas"
	"silverrock/internal/utils"
)

// maxProfileImageSize limits uploaded profile images to 5 MiB.
const maxProfileImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type UserHdl interface {
	RegisterUser(c *gin.Context)
	CheckNickname(c *gin.Context)
	LoginUser(c *gin.Context)
	RefreshToken(c *gin.Context)
	LogoutUser(c *gin.Context)
	GetMe(c *gin.Context)
	ChangeUserInfo(c *gin.Context)
	ChangeProfileImage(c *gin.Context)
	RemoveProfileImage(c *gin.Context)
	GetNearbyUsers(c *gin.Context)
}

type UserHandler struct {
	DatabaseManager   managers.DatabaseMgr
	JWTManager        managers.JWTMgr
	MailManager       managers.MailMgr
	StorageManager    managers.StorageMgr
	CredentialManager managers.CredentialMgr
	TokenStore        managers.TokenStore
	UserDirectory     managers.UserDirectory
	Validator         *utils.Validator
}

func NewUserHandler(databaseMgr managers.DatabaseMgr, jwtMgr managers.JWTMgr, mailMgr managers.MailMgr,
	storageMgr managers.StorageMgr, credentialMgr managers.CredentialMgr, tokenStore managers.TokenStore,
	directory managers.UserDirectory) UserHdl {
	return &UserHandler{
		DatabaseManager:   databaseMgr,
		JWTManager:        jwtMgr,
		MailManager:       mailMgr,
		StorageManager:    storageMgr,
		CredentialManager: credentialMgr,
		TokenStore:        tokenStore,
		UserDirectory:     directory,
		Validator:         utils.GetValidator(),
	}
}

var (
	errInvalidToken     = errors.New("invalid token")
	errEmailUnreachable = errors.New("email address is unreachable")
	errNoChanges        = errors.New("no fields to change")
	errMissingNickname  = errors.New("nickname query parameter is missing")
	errInvalidImage     = errors.New("invalid profile image")
)

// RegisterUser creates a new account together with the optional profile image.
func (handler *UserHandler) RegisterUser(c *gin.Context) {
	payload, err := utils.SanitizedPayload[schemas.RegistrationRequest](c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	// Notification addresses are only checked when mails are actually sent
	if payload.Email != "" && handler.MailManager.Enabled() && !handler.Validator.VerifyEmail(payload.Email) {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, errEmailUnreachable)
		return
	}

	image, err := profileImageFromForm(c, false)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	hashedPassword, err := handler.CredentialManager.Encrypt(payload.Password)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	// Upload the image before the user exists, a failed upload aborts the registration
	var imageURL, imageKey string
	if image != nil {
		if imageURL, imageKey, err = handler.uploadImage(ctx, image); err != nil {
			writeManagerError(c, err)
			return
		}
	}

	user := &schemas.User{
		PhoneNumber:  payload.PhoneNumber,
		Gender:       payload.Gender,
		Nickname:     payload.Nickname,
		Birth:        payload.Birth,
		Region:       payload.Region,
		Password:     hashedPassword,
		Introduction: payload.Introduction,
		Email:        payload.Email,
	}

	err = utils.WithTransaction(ctx, handler.DatabaseManager.GetPool(), func(tx pgx.Tx) error {
		userId, err := handler.UserDirectory.Create(ctx, tx, user)
		if err != nil {
			return err
		}
		user.ID = userId

		if imageKey == "" {
			return nil
		}
		return handler.UserDirectory.SaveProfileImage(ctx, tx, userId, imageURL, imageKey)
	})
	if err != nil {
		handler.discardImage(ctx, imageKey)
		writeManagerError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, &schemas.RegisteredUserDTO{
		UserId:   user.ID,
		Nickname: user.Nickname,
	}, http.StatusCreated)
}

// CheckNickname reports whether the nickname in the query is still available.
func (handler *UserHandler) CheckNickname(c *gin.Context) {
	nickname := c.Query(utils.NicknameParamKey)
	if nickname == "" {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, errMissingNickname)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	exists, err := handler.UserDirectory.NicknameExists(ctx, handler.DatabaseManager.GetPool(), nickname)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, &schemas.NicknameAvailabilityDTO{
		Nickname:  nickname,
		Available: !exists,
	}, http.StatusOK)
}

// LoginUser checks the credentials and starts a new session. An older session of the user is replaced.
func (handler *UserHandler) LoginUser(c *gin.Context) {
	payload, err := utils.SanitizedPayload[schemas.LoginRequest](c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	pool := handler.DatabaseManager.GetPool()

	// Unknown phone numbers are reported like wrong passwords
	user, err := handler.UserDirectory.FindByPhoneNumber(ctx, pool, payload.PhoneNumber)
	if errors.Is(err, managers.ErrUserNotFound) {
		utils.WriteAndLogError(c, schemas.InvalidCredentials, http.StatusUnauthorized, err)
		return
	}
	if err != nil {
		writeManagerError(c, err)
		return
	}

	if err = handler.CredentialManager.Verify(user.Password, payload.Password); err != nil {
		writeManagerError(c, err)
		return
	}

	tokenPair, err := handler.JWTManager.GenerateTokenPair(user.ID)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	if err = handler.TokenStore.Save(ctx, pool, user.ID, tokenPair.AccessToken, tokenPair.RefreshToken); err != nil {
		writeManagerError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, toTokenPairDTO(user.ID, tokenPair), http.StatusOK)
}

// RefreshToken exchanges the refresh token of the current session for a new token pair.
func (handler *UserHandler) RefreshToken(c *gin.Context) {
	payload, err := utils.SanitizedPayload[schemas.RefreshTokenRequest](c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	userId, err := handler.JWTManager.ValidateJWT(payload.RefreshToken, managers.RefreshTokenType)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	var tokenPair *managers.TokenPair
	err = utils.WithTransaction(ctx, handler.DatabaseManager.GetPool(), func(tx pgx.Tx) error {
		// Only the refresh token of the latest session may be used
		session, err := handler.TokenStore.FindByUser(ctx, tx, userId)
		if err != nil {
			return err
		}
		if session.RefreshToken != payload.RefreshToken {
			return errInvalidToken
		}

		tokenPair, err = handler.JWTManager.GenerateTokenPair(userId)
		if err != nil {
			return err
		}
		return handler.TokenStore.Save(ctx, tx, userId, tokenPair.AccessToken, tokenPair.RefreshToken)
	})
	if errors.Is(err, errInvalidToken) {
		// A replaced refresh token was used again, the session it leads to is revoked
		if _, revokeErr := handler.TokenStore.DeleteByUserId(ctx, handler.DatabaseManager.GetPool(), userId); revokeErr != nil {
			utils.LogMessageWithFieldsAndError(c, "error", "Failed to revoke session", revokeErr)
		}
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}
	if err != nil {
		writeManagerError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, toTokenPairDTO(userId, tokenPair), http.StatusOK)
}

// LogoutUser ends the session the bearer token belongs to. Expired access tokens are accepted
// as long as they are still stored, tokens of an older, replaced session are refused.
func (handler *UserHandler) LogoutUser(c *gin.Context) {
	rawToken, err := utils.RawToken(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	pool := handler.DatabaseManager.GetPool()

	// Only the stored session is authoritative, the signature alone does not identify it
	userId, err := handler.TokenStore.FindUserByAccessToken(ctx, pool, rawToken)
	if err != nil {
		if errors.Is(err, managers.ErrTokenNotFound) {
			utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
			return
		}
		writeManagerError(c, err)
		return
	}

	deleted, err := handler.TokenStore.DeleteByAccessToken(ctx, pool, rawToken)
	if err != nil {
		writeManagerError(c, err)
		return
	}
	if !deleted {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, managers.ErrTokenNotFound)
		return
	}

	utils.LogMessageWithFields(c, "info", "Logged out user "+strconv.FormatInt(userId, 10))
	c.Status(http.StatusNoContent)
}

// GetMe returns the account of the logged in user.
func (handler *UserHandler) GetMe(c *gin.Context) {
	userId, err := utils.CurrentUserId(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	userInfo, err := handler.loadUserInfo(ctx, userId)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, userInfo, http.StatusOK)
}

// ChangeUserInfo applies a partial update to the account of the logged in user.
func (handler *UserHandler) ChangeUserInfo(c *gin.Context) {
	userId, err := utils.CurrentUserId(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	payload, err := utils.SanitizedPayload[schemas.ChangeUserInfoRequest](c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	patch := &schemas.UserInfoPatch{
		PhoneNumber:  payload.PhoneNumber,
		Gender:       payload.Gender,
		Nickname:     payload.Nickname,
		Birth:        payload.Birth,
		Region:       payload.Region,
		Introduction: payload.Introduction,
	}
	if *patch == (schemas.UserInfoPatch{}) {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, errNoChanges)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	if err = handler.UserDirectory.UpdateInfo(ctx, handler.DatabaseManager.GetPool(), userId, patch); err != nil {
		writeManagerError(c, err)
		return
	}

	userInfo, err := handler.loadUserInfo(ctx, userId)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, userInfo, http.StatusOK)
}

// ChangeProfileImage replaces the profile image of the logged in user.
func (handler *UserHandler) ChangeProfileImage(c *gin.Context) {
	userId, err := utils.CurrentUserId(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	image, err := profileImageFromForm(c, true)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	imageURL, imageKey, err := handler.uploadImage(ctx, image)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	var previousKey string
	err = utils.WithTransaction(ctx, handler.DatabaseManager.GetPool(), func(tx pgx.Tx) error {
		previous, err := handler.UserDirectory.FindProfileImage(ctx, tx, userId)
		switch {
		case err == nil:
			previousKey = previous.FileName
		case !errors.Is(err, managers.ErrProfileImageNotFound):
			return err
		}
		return handler.UserDirectory.SaveProfileImage(ctx, tx, userId, imageURL, imageKey)
	})
	if err != nil {
		handler.discardImage(ctx, imageKey)
		writeManagerError(c, err)
		return
	}

	handler.discardImage(ctx, previousKey)

	utils.WriteAndLogResponse(c, &schemas.ProfileImageDTO{
		ImageURL: imageURL,
		FileName: imageKey,
	}, http.StatusOK)
}

// RemoveProfileImage deletes the profile image of the logged in user.
func (handler *UserHandler) RemoveProfileImage(c *gin.Context) {
	userId, err := utils.CurrentUserId(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	var imageKey string
	err = utils.WithTransaction(ctx, handler.DatabaseManager.GetPool(), func(tx pgx.Tx) error {
		image, err := handler.UserDirectory.FindProfileImage(ctx, tx, userId)
		if err != nil {
			return err
		}
		imageKey = image.FileName

		deleted, err := handler.UserDirectory.DeleteProfileImage(ctx, tx, userId)
		if err != nil {
			return err
		}
		if !deleted {
			return managers.ErrProfileImageNotFound
		}
		return nil
	})
	if err != nil {
		writeManagerError(c, err)
		return
	}

	// The object is only removed once no profile references it anymore
	handler.discardImage(ctx, imageKey)

	utils.LogMessageWithFields(c, "info", "Returning response")
	c.Status(http.StatusNoContent)
}

// GetNearbyUsers lists the other users living in the region of the logged in user.
func (handler *UserHandler) GetNearbyUsers(c *gin.Context) {
	userId, err := utils.CurrentUserId(c)
	if err != nil {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	ctx, cancel := utils.RequestContext(c)
	defer cancel()

	profiles, err := handler.UserDirectory.FindNearby(ctx, handler.DatabaseManager.GetPool(), userId)
	if err != nil {
		writeManagerError(c, err)
		return
	}

	if len(profiles) == 0 {
		utils.WriteAndLogError(c, schemas.NoNearbyUsers, http.StatusNotFound, errors.New(schemas.NoNearbyUsers.Message))
		return
	}

	utils.WriteAndLogResponse(c, &schemas.RecordsDTO{Records: toUserProfileDTOs(profiles)}, http.StatusOK)
}

func (handler *UserHandler) loadUserInfo(ctx context.Context, userId int64) (*schemas.UserInfoDTO, error) {
	pool := handler.DatabaseManager.GetPool()

	user, err := handler.UserDirectory.FindById(ctx, pool, userId)
	if err != nil {
		return nil, err
	}

	image, err := handler.UserDirectory.FindProfileImage(ctx, pool, userId)
	if err != nil && !errors.Is(err, managers.ErrProfileImageNotFound) {
		return nil, err
	}

	return &schemas.UserInfoDTO{
		PhoneNumber:  user.PhoneNumber,
		Gender:       user.Gender,
		Nickname:     user.Nickname,
		Birth:        user.Birth,
		Region:       user.Region,
		Introduction: user.Introduction,
		Email:        user.Email,
		ProfileImage: toProfileImageDTO(image),
	}, nil
}

func (handler *UserHandler) uploadImage(ctx context.Context, image *profileImage) (string, string, error) {
	file, err := image.header.Open()
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	return handler.StorageManager.UploadProfileImage(ctx, image.header.Filename, image.contentType, file, image.header.Size)
}

// discardImage removes an uploaded object that is no longer referenced. Failures only leave an orphan behind.
func (handler *UserHandler) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := handler.StorageManager.DeleteObject(ctx, key); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Failed to delete profile image "+key, err)
	}
}

// profileImage is an uploaded image part together with its sniffed content type.
type profileImage struct {
	header      *multipart.FileHeader
	contentType string
}

// profileImageFromForm reads the image part of a multipart request.
// A missing image is only an error when required is set.
func profileImageFromForm(c *gin.Context, required bool) (*profileImage, error) {
	header, err := c.FormFile(utils.ProfileImageFormKey)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		if required {
			return nil, errInvalidImage
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if header.Size <= 0 || header.Size > maxProfileImageSize {
		return nil, errInvalidImage
	}

	contentType, err := sniffContentType(header)
	if err != nil {
		return nil, err
	}
	if !allowedImageTypes[contentType] {
		return nil, errInvalidImage
	}

	return &profileImage{header: header, contentType: contentType}, nil
}

// sniffContentType detects the type from the first bytes of the file, the header sent by the client is ignored.
func sniffContentType(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}

	return http.DetectContentType(buffer[:n]), nil
}

func toTokenPairDTO(userId int64, tokenPair *managers.TokenPair) *schemas.TokenPairDTO {
	return &schemas.TokenPairDTO{
		UserId:                userId,
		Token:                 tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		TokenExpiresAt:        tokenPair.AccessExpiresAt.Format(time.RFC3339),
		RefreshTokenExpiresAt: tokenPair.RefreshExpiresAt.Format(time.RFC3339),
	}
}
