package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type ReviewHTTP struct {
	Svc     *service.ReviewService
	Uploads *Uploader
}

func idParam(c echo.Context, name string) (uint, error) {
	return cast.ToUintE(c.Param(name))
}

func (h *ReviewHTTP) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	productID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "list_reviews_error", "id is not a uuid", err)
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)

	res, err := h.Svc.List(ctx, actorOf(c), productID, c.QueryParam("sort"), page)
	if err != nil {
		return fail(l, "list_reviews_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ReviewHTTP) Eligibility(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.eligibility")

	productID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "review_eligibility_error", "id is not a uuid", err)
	}
	res, err := h.Svc.Eligibility(ctx, actorOf(c), productID)
	if err != nil {
		return fail(l, "review_eligibility_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

// reviewInput accepts either a multipart form with image files or a JSON body.
func (h *ReviewHTTP) reviewInput(c echo.Context) (service.ReviewInput, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		var req transport.ReviewRequest
		if err := c.Bind(&req); err != nil {
			return service.ReviewInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		if err := c.Validate(&req); err != nil {
			return service.ReviewInput{}, err
		}
		return req.ToInput(), nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return service.ReviewInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if _, err := transport.ReviewInputFromForm(form.Value, nil); err != nil {
		return service.ReviewInput{}, err
	}
	images, err := h.Uploads.Save(form.File["images"], "review_", service.MaxReviewImages)
	if err != nil {
		return service.ReviewInput{}, err
	}
	return transport.ReviewInputFromForm(form.Value, images)
}

func (h *ReviewHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.submit")

	productID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "review_submit_error", "id is not a uuid", err)
	}
	in, err := h.reviewInput(c)
	if err != nil {
		return fail(l, "review_submit_error", err)
	}

	review, err := h.Svc.Submit(ctx, actorOf(c), productID, in)
	if err != nil {
		return fail(l, "review_submit_error", err)
	}

	l.Info("review_submit_success", "review_id", review.ID, "product_id", productID.String())
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "review_delete_error", "id is not a number", err)
	}
	if err := h.Svc.Delete(ctx, actorOf(c), id); err != nil {
		return fail(l, "review_delete_error", err)
	}

	l.Info("review_delete_success", "review_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ReviewHTTP) ToggleHelpful(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.helpful")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "review_helpful_error", "id is not a number", err)
	}
	liked, count, err := h.Svc.ToggleLike(ctx, actorOf(c), id)
	if err != nil {
		return fail(l, "review_helpful_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"liked":         liked,
		"helpful_count": count,
	})
}

func (h *ReviewHTTP) AddReply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reply.add")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "reply_add_error", "id is not a number", err)
	}
	var req transport.ReplyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "reply_add_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "reply_add_error", err)
	}

	reply, err := h.Svc.AddReply(ctx, actorOf(c), id, req.Comment)
	if err != nil {
		return fail(l, "reply_add_error", err)
	}
	return c.JSON(http.StatusCreated, reply)
}

func (h *ReviewHTTP) EditReply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reply.edit")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "reply_edit_error", "id is not a number", err)
	}
	var req transport.ReplyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "reply_edit_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "reply_edit_error", err)
	}

	reply, err := h.Svc.EditReply(ctx, actorOf(c), id, req.Comment)
	if err != nil {
		return fail(l, "reply_edit_error", err)
	}
	return c.JSON(http.StatusOK, reply)
}

func (h *ReviewHTTP) DeleteReply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reply.delete")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "reply_delete_error", "id is not a number", err)
	}
	if err := h.Svc.DeleteReply(ctx, actorOf(c), id); err != nil {
		return fail(l, "reply_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
