package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/blaircullen/socialdesk/internal/models"
	"github.com/blaircullen/socialdesk/internal/queue"
	"github.com/blaircullen/socialdesk/internal/repository"
	"github.com/blaircullen/socialdesk/internal/service"
	"github.com/blaircullen/socialdesk/internal/transfer"
)

type PostHandler struct {
	qs          service.QueueService
	ds          service.DispatchService
	ms          service.MediaService
	cg          service.CaptionGenerator
	AsynqClient *asynq.Client
}

func NewPostHandler(
	qs service.QueueService,
	ds service.DispatchService,
	ms service.MediaService,
	cg service.CaptionGenerator,
	asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{
		qs:          qs,
		ds:          ds,
		ms:          ms,
		cg:          cg,
		AsynqClient: asynqClient,
	}
}

// CreatePosts bulk-queues one article across selected accounts. The
// multipart form carries article_id, an entries JSON array with
// per-account caption/schedule, and optionally one image.
func (h *PostHandler) CreatePosts(c *fiber.Ctx) error {
	articleID := c.FormValue("article_id")
	entriesRaw := c.FormValue("entries")
	useAdvisor := c.FormValue("use_advisor") == "true"

	var entries []transfer.QueueEntry
	if entriesRaw != "" {
		if err := json.Unmarshal([]byte(entriesRaw), &entries); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse entries",
			})
		}
	}

	var imageURL string
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["image"]; len(files) > 0 {
			imageURL, err = h.ms.UploadImage(c.Context(), files[0])
			if err != nil {
				return fail(c, err)
			}
		}
	}

	created, err := h.qs.Queue(c.Context(), &transfer.PostCreation{
		ArticleID:  articleID,
		Entries:    entries,
		UseAdvisor: useAdvisor,
	}, imageURL)
	if err != nil {
		return fail(c, err)
	}

	for _, post := range created {
		h.enqueueDispatch(post)
	}

	slog.Info("posts queued", "operator_id", GetOperatorID(c), "article_id", articleID, "count", len(created))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Posts queued",
		"posts":   created,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	if postID := c.Query("id"); postID != "" {
		view, err := h.qs.PostInfo(c.Context(), postID)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(view)
	}

	filter, err := parseFilter(c)
	if err != nil {
		return fail(c, err)
	}

	views, err := h.qs.List(c.Context(), filter)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(views)
}

func parseFilter(c *fiber.Ctx) (repository.PostFilter, error) {
	var filter repository.PostFilter

	if status := c.Query("status"); status != "" {
		filter.Status = models.PostStatus(status)
	}
	if platform := c.Query("platform"); platform != "" {
		if !models.ValidPlatform(models.Platform(platform)) {
			return filter, &service.ValidationError{Reason: "unknown platform " + platform}
		}
		filter.Platform = models.Platform(platform)
	}
	filter.AccountID = c.Query("account_id")

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, &service.ValidationError{Reason: "invalid since instant"}
		}
		filter.Since = &t
	}
	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return filter, &service.ValidationError{Reason: "invalid until instant"}
		}
		filter.Until = &t
	}

	return filter, nil
}

func (h *PostHandler) ApprovePost(c *fiber.Ctx) error {
	post, err := h.qs.Approve(c.Context(), c.Query("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// SendPost is the operator's send-now: one synchronous attempt whose
// outcome (sent or failed) comes back in the response.
func (h *PostHandler) SendPost(c *fiber.Ctx) error {
	post, err := h.ds.SendNow(c.Context(), c.Query("id"))
	if err != nil {
		var pf *service.PublishFailure
		if errors.As(err, &pf) && post != nil {
			// The failure is already on the post; return both.
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": err.Error(),
				"post":  post,
			})
		}
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	post, err := h.qs.Retry(c.Context(), c.Query("id"))
	if err != nil {
		return fail(c, err)
	}

	h.enqueueDispatch(post)

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	if err := h.qs.Remove(c.Context(), c.Query("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) UpdateCaption(c *fiber.Ctx) error {
	var req transfer.CaptionUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	if err := h.qs.UpdateCaption(c.Context(), req.PostID, req.Caption); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) UpdateSchedule(c *fiber.Ctx) error {
	var req transfer.ScheduleUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	post, err := h.qs.UpdateSchedule(c.Context(), req.PostID, req.ScheduledAt)
	if err != nil {
		return fail(c, err)
	}

	// The old one-shot task will find the post not yet due and drop
	// out; this one lands at the new time.
	h.enqueueDispatch(post)

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) BatchApprove(c *fiber.Ctx) error {
	var req transfer.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	result, err := h.qs.BatchApprove(c.Context(), req.PostIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) BatchDelete(c *fiber.Ctx) error {
	var req transfer.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	result, err := h.qs.BatchDelete(c.Context(), req.PostIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GenerateCaption asks the external generator for a draft. Failures
// surface here as generation errors and never move post status.
func (h *PostHandler) GenerateCaption(c *fiber.Ctx) error {
	var req transfer.CaptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	caption, err := h.cg.Generate(c.Context(), req.ArticleID, req.AccountID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Caption generation failed: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.CaptionResponse{Caption: caption})
}

func (h *PostHandler) enqueueDispatch(post *models.SocialPost) {
	err := queue.EnqueueDispatch(h.AsynqClient,
		queue.DispatchPostPayload{PostID: post.ID},
		time.Until(post.ScheduledAt))
	if err != nil {
		// The periodic sweep will pick the post up once due.
		slog.Error("scheduling dispatch task", "post_id", post.ID, "error", err)
	}
}
