package causes

import (
	"context"
	"net/http"
	"strconv"

	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/app/system/htmlsanitize"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/inputval"
	"github.com/instiq/caritas/internal/app/system/media"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"github.com/instiq/caritas/internal/domain/models"
	"go.uber.org/zap"
)

// maxCreateForm bounds the whole multipart body; individual files are capped
// separately by media.MaxUploadBytes.
const maxCreateForm = 64 << 20

// HandleCreate accepts a multipart form with the cause fields, photos under
// "cause_photos", and an optional "cause_video". The cause enters the
// moderation queue in the Pending state.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to create a cause."))
		return
	}

	if err := r.ParseMultipartForm(maxCreateForm); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid form data."))
		return
	}

	fields, apiErr := causeFieldsFromForm(r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "cause create")
	defer cancel()

	photos, video, apiErr := h.saveCauseMedia(ctx, r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return
	}

	cause := models.Cause{
		CauseTitle:               fields.title,
		BriefDescription:         fields.brief,
		CharityInfo:              fields.charityInfo,
		AdditionalInfo:           fields.additionalInfo,
		AccountNumber:            fields.accountNumber,
		AcceptCommentsAndReviews: fields.acceptComments,
		WatchCause:               fields.watchCause,
		CauseFundVisibility:      fields.fundVisibility,
		ShareOnSocialMedia:       fields.shareSocial,
		CausePhotos:              photos,
		CauseVideo:               video,
		AmountRequired:           fields.amountRequired,
		Category:                 fields.category,
		CreatedBy:                p.UserID,
	}

	created, err := h.Causes.Create(ctx, cause)
	if err != nil {
		h.cleanupMedia(ctx, photos, video)
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Bus.Publish(events.CauseSubmitted{Cause: created})
	httpapi.OK(w, "Cause created successfully. It is now awaiting moderation.", created)
}

type causeFields struct {
	title          string
	brief          string
	charityInfo    string
	additionalInfo string
	accountNumber  string
	category       string
	amountRequired int64
	acceptComments bool
	watchCause     bool
	fundVisibility bool
	shareSocial    bool
}

func causeFieldsFromForm(r *http.Request) (causeFields, *httpapi.Error) {
	f := causeFields{
		title:          r.FormValue("cause_title"),
		brief:          htmlsanitize.Sanitize(r.FormValue("brief_description")),
		charityInfo:    htmlsanitize.Sanitize(r.FormValue("charity_information")),
		additionalInfo: htmlsanitize.Sanitize(r.FormValue("additional_information")),
		accountNumber:  r.FormValue("account_number"),
		category:       r.FormValue("category"),
		acceptComments: formBool(r, "accept_comments_and_reviews"),
		watchCause:     formBool(r, "watch_cause"),
		fundVisibility: formBool(r, "cause_fund_visibility"),
		shareSocial:    formBool(r, "share_on_social_media"),
	}

	if msg := inputval.First(
		inputval.Required("Cause title", f.title),
		inputval.MaxLen("Cause title", f.title, 200),
		inputval.Required("Brief description", f.brief),
	); msg != "" {
		return f, httpapi.Validation(msg)
	}
	if !models.IsValidCategory(f.category) {
		return f, httpapi.Validation("Category must be one of the recognized cause categories.")
	}

	amount, err := strconv.ParseInt(r.FormValue("amount_required"), 10, 64)
	if err != nil || amount <= 0 {
		return f, httpapi.Validation("Amount required must be a positive whole number.")
	}
	f.amountRequired = amount
	return f, nil
}

func formBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.FormValue(name))
	return v
}

// saveCauseMedia validates and stores the uploaded photos and the optional
// video. A rejected file aborts the request and removes anything already
// stored for it.
func (h *Handler) saveCauseMedia(ctx context.Context, r *http.Request) (photos []string, video string, apiErr *httpapi.Error) {
	if r.MultipartForm == nil {
		return nil, "", nil
	}

	fail := func(e *httpapi.Error) ([]string, string, *httpapi.Error) {
		h.cleanupMedia(ctx, photos, video)
		return nil, "", e
	}

	for _, fh := range r.MultipartForm.File["cause_photos"] {
		if !media.AllowedCausePhoto(fh.Header.Get("Content-Type")) {
			return fail(httpapi.UnsupportedMedia("Cause photos must be PNG, JPEG, or SVG images."))
		}
		if fh.Size > media.MaxUploadBytes {
			return fail(httpapi.Validation("Each cause photo must be 10 MB or smaller."))
		}
		f, err := fh.Open()
		if err != nil {
			return fail(httpapi.Validation("Could not read an uploaded photo."))
		}
		path, err := h.Media.Save(ctx, fh.Filename, f, fh.Size)
		f.Close()
		if err != nil {
			h.Log.Error("photo upload failed", zap.Error(err))
			return fail(httpapi.Validation("Failed to store an uploaded photo. Please try again."))
		}
		photos = append(photos, path)
	}

	if vids := r.MultipartForm.File["cause_video"]; len(vids) > 0 {
		fh := vids[0]
		if !media.AllowedCauseVideo(fh.Header.Get("Content-Type")) {
			return fail(httpapi.UnsupportedMedia("The cause video must be an MP4 file."))
		}
		if fh.Size > media.MaxUploadBytes {
			return fail(httpapi.Validation("The cause video must be 10 MB or smaller."))
		}
		f, err := fh.Open()
		if err != nil {
			return fail(httpapi.Validation("Could not read the uploaded video."))
		}
		path, err := h.Media.Save(ctx, fh.Filename, f, fh.Size)
		f.Close()
		if err != nil {
			h.Log.Error("video upload failed", zap.Error(err))
			return fail(httpapi.Validation("Failed to store the uploaded video. Please try again."))
		}
		video = path
	}

	return photos, video, nil
}

// cleanupMedia removes stored files after a failed create. Best effort.
func (h *Handler) cleanupMedia(ctx context.Context, photos []string, video string) {
	for _, p := range photos {
		if err := h.Media.Delete(ctx, p); err != nil {
			h.Log.Warn("failed to clean up uploaded photo", zap.String("path", p), zap.Error(err))
		}
	}
	if video != "" {
		if err := h.Media.Delete(ctx, video); err != nil {
			h.Log.Warn("failed to clean up uploaded video", zap.String("path", video), zap.Error(err))
		}
	}
}
