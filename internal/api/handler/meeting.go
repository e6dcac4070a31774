package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shahadulhaider/meeting-note-taker/internal/api/middleware"
	"github.com/shahadulhaider/meeting-note-taker/internal/config"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
	"github.com/shahadulhaider/meeting-note-taker/internal/repository"
	"github.com/shahadulhaider/meeting-note-taker/internal/storage"
	"gorm.io/gorm"
)

// allowedAudioTypes is the declared Content-Type allow-list for uploads.
var allowedAudioTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/mp3":  true,
	"audio/wav":  true,
	"audio/webm": true,
	"audio/ogg":  true,
	"audio/mp4":  true,
}

// allowedSniffedTypes is checked against the detected content of the
// file. Containers used for audio often sniff as their video or generic
// variant, so this list is wider than the declared one.
var allowedSniffedTypes = map[string]bool{
	"audio/mpeg":      true,
	"audio/wav":       true,
	"audio/x-wav":     true,
	"audio/webm":      true,
	"video/webm":      true,
	"audio/ogg":       true,
	"application/ogg": true,
	"audio/mp4":       true,
	"video/mp4":       true,
}

// JobEnqueuer is the producer-side view of the job queue.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *domain.AudioJob) (string, error)
}

// MeetingHandler implements the meeting CRUD and upload endpoints.
type MeetingHandler struct {
	meetings    *repository.MeetingRepository
	transcripts *repository.TranscriptRepository
	storage     storage.ObjectStorage
	queue       JobEnqueuer
	storageCfg  *config.StorageConfig
}

// NewMeetingHandler creates a new meeting handler.
func NewMeetingHandler(
	meetings *repository.MeetingRepository,
	transcripts *repository.TranscriptRepository,
	objectStorage storage.ObjectStorage,
	queue JobEnqueuer,
	storageCfg *config.StorageConfig,
) *MeetingHandler {
	return &MeetingHandler{
		meetings:    meetings,
		transcripts: transcripts,
		storage:     objectStorage,
		queue:       queue,
		storageCfg:  storageCfg,
	}
}

type createMeetingRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
}

// Create registers a new meeting in pending state.
func (h *MeetingHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	meeting := &domain.Meeting{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.MeetingStatusPending,
	}
	if err := h.meetings.Create(c.Request.Context(), meeting); err != nil {
		logger.CtxError(c.Request.Context(), "Failed to create meeting: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create meeting"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"meeting": meeting})
}

// List returns the caller's meetings, newest first.
func (h *MeetingHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	meetings, err := h.meetings.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to list meetings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list meetings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

// Get returns one meeting; for completed meetings the transcript is
// included.
func (h *MeetingHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	meeting, err := h.meetings.GetOwned(ctx, c.Param("id"), user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		logger.CtxError(ctx, "Failed to fetch meeting: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meeting"})
		return
	}

	response := gin.H{"meeting": meeting}
	if meeting.Status == domain.MeetingStatusCompleted {
		transcript, err := h.transcripts.GetByMeetingID(ctx, meeting.ID)
		if err != nil {
			logger.CtxWarn(ctx, "Failed to fetch transcript for meeting %s: %v", meeting.ID, err)
		} else if transcript != nil {
			response["transcript"] = transcript
		}
	}

	c.JSON(http.StatusOK, response)
}

// Delete removes a meeting, its transcript (via the FK cascade) and,
// best effort, its stored audio object.
func (h *MeetingHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	meeting, err := h.meetings.GetOwned(ctx, c.Param("id"), user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		logger.CtxError(ctx, "Failed to fetch meeting: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meeting"})
		return
	}

	if key := objectKeyFromURL(meeting.AudioURL, meeting.ID); key != "" {
		if err := h.storage.Delete(ctx, key); err != nil {
			logger.CtxWarn(ctx, "Failed to delete audio object %s: %v", key, err)
		}
	}

	if err := h.meetings.Delete(ctx, meeting.ID); err != nil {
		logger.CtxError(ctx, "Failed to delete meeting: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete meeting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "meeting deleted"})
}

// Upload accepts the meeting's audio recording and queues it for
// processing. A meeting accepts exactly one upload: only pending
// meetings may receive one.
func (h *MeetingHandler) Upload(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	meeting, err := h.meetings.GetOwned(ctx, c.Param("id"), user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		logger.CtxError(ctx, "Failed to fetch meeting: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meeting"})
		return
	}

	if meeting.Status != domain.MeetingStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio has already been uploaded for this meeting"})
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	if fileHeader.Size > h.storageCfg.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds the %d MB limit", h.storageCfg.MaxFileSize/(1024*1024)),
		})
		return
	}

	contentType, err := validateAudioType(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.CtxError(ctx, "Failed to open upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer file.Close()

	fileName := filepath.Base(fileHeader.Filename)
	key := fmt.Sprintf("%s/%d-%s", meeting.ID, time.Now().Unix(), fileName)

	if err := h.storage.Upload(ctx, key, file, fileHeader.Size, contentType); err != nil {
		logger.CtxError(ctx, "Failed to store audio: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store audio"})
		return
	}

	publicURL := h.storage.GetURL(key)
	if err := h.meetings.UpdateFields(ctx, meeting.ID, map[string]interface{}{
		"audio_url": publicURL,
		"status":    domain.MeetingStatusUploading,
	}); err != nil {
		logger.CtxError(ctx, "Failed to record upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record upload"})
		return
	}

	// The worker downloads through a signed URL so the bucket can stay
	// private; the public URL is only what gets persisted for clients.
	jobURL, err := h.storage.SignedURL(ctx, key, h.storageCfg.SignedURLTTL)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to sign audio URL, falling back to public URL: %v", err)
		jobURL = publicURL
	}

	jobID, err := h.queue.Enqueue(ctx, &domain.AudioJob{
		MeetingID: meeting.ID,
		UserID:    user.ID,
		AudioURL:  jobURL,
		FileName:  fileName,
	})
	if err != nil {
		logger.CtxError(ctx, "Failed to enqueue processing job: %v", err)
		// Let the client retry the upload from scratch.
		if rerr := h.meetings.UpdateStatus(ctx, meeting.ID, domain.MeetingStatusPending); rerr != nil {
			logger.CtxError(ctx, "Failed to reset meeting status: %v", rerr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue audio for processing"})
		return
	}

	if err := h.meetings.UpdateFields(ctx, meeting.ID, map[string]interface{}{
		"job_id": jobID,
		"status": domain.MeetingStatusProcessing,
	}); err != nil {
		logger.CtxError(ctx, "Failed to record job id: %v", err)
	}

	logger.CtxInfo(ctx, "Audio uploaded for meeting %s, job %s queued", meeting.ID, jobID)

	c.JSON(http.StatusOK, gin.H{
		"message":   "Audio uploaded successfully, processing started",
		"jobId":     jobID,
		"meetingId": meeting.ID,
	})
}

// validateAudioType checks both the declared Content-Type and the
// sniffed file content, returning the declared media type on success.
func validateAudioType(fileHeader *multipart.FileHeader) (string, error) {
	declared := fileHeader.Header.Get("Content-Type")
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	declared = strings.TrimSpace(strings.ToLower(declared))
	if !allowedAudioTypes[declared] {
		return "", fmt.Errorf("unsupported audio type %q", declared)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	defer file.Close()

	sniffed, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to inspect upload: %w", err)
	}
	if !allowedSniffedTypes[sniffed.String()] {
		return "", fmt.Errorf("file content does not look like audio (%s)", sniffed)
	}

	return declared, nil
}

// objectKeyFromURL recovers the storage key from a persisted audio URL.
// Keys are always prefixed with the meeting id, which anchors the
// search regardless of the endpoint or bucket part of the URL.
func objectKeyFromURL(audioURL, meetingID string) string {
	if audioURL == "" {
		return ""
	}
	marker := meetingID + "/"
	if i := strings.Index(audioURL, marker); i >= 0 {
		return audioURL[i:]
	}
	return ""
}
