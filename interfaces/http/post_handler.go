package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"social-relay/domain/model"
	"social-relay/usecase"

	"github.com/gin-gonic/gin"
)

type IPostHandler interface {
	Publish(provider string) gin.HandlerFunc
	History(provider string) gin.HandlerFunc
}

type PostHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPostHandler(publishUsecase usecase.IPublishUsecase) IPostHandler {
	return &PostHandler{publishUsecase: publishUsecase}
}

type postRequest struct {
	Text string `json:"text"`
}

// Publish handles POST /{provider}/post. Multipart bodies carry "text" and an optional "media" file;
// JSON bodies carry text only.
func (h *PostHandler) Publish(provider string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		text, upload, closeUpload, err := readPostRequest(ctx)
		if err != nil {
			respondError(ctx, "", model.NewRelayError(model.KindInvalidRequest, provider, "parse post request", err))
			return
		}
		defer closeUpload()

		res, err := h.publishUsecase.Publish(ctx.Request.Context(), sessionID(ctx), provider, text, upload)
		if err != nil {
			respondError(ctx, "", err)
			return
		}
		ctx.JSON(http.StatusOK, res)
	}
}

// History handles GET /{provider}/posts?limit=N
func (h *PostHandler) History(provider string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limit := 0
		if raw := ctx.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respondError(ctx, "", model.NewRelayError(model.KindInvalidRequest, provider, "limit must be a non-negative integer", err))
				return
			}
			limit = n
		}
		posts, err := h.publishUsecase.History(ctx.Request.Context(), sessionID(ctx), provider, limit)
		if err != nil {
			respondError(ctx, "", err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"posts": posts})
	}
}

func readPostRequest(ctx *gin.Context) (string, *model.Upload, func(), error) {
	noop := func() {}
	if strings.HasPrefix(ctx.ContentType(), "application/json") {
		var req postRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return "", nil, noop, err
		}
		return req.Text, nil, noop, nil
	}

	text := ctx.PostForm("text")
	fh, err := ctx.FormFile("media")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return text, nil, noop, nil
	}
	if err != nil {
		return "", nil, noop, err
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, noop, err
	}
	upload := &model.Upload{
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Body:     f,
	}
	return text, upload, func() { _ = f.Close() }, nil
}
