package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"nrql-builder-backend/internal/dto"
	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/repository"
	"nrql-builder-backend/internal/service"
	"nrql-builder-backend/internal/util"
)

type SavedQueryController struct {
	savedQueryService service.SavedQueryService
}

func NewSavedQueryController(savedQueryService service.SavedQueryService) *SavedQueryController {
	return &SavedQueryController{
		savedQueryService: savedQueryService,
	}
}

func RegisterSavedQueryRoutes(router *gin.Engine, controller *SavedQueryController) {
	v1Saved := router.Group("/api/v1/saved-queries")
	{
		v1Saved.POST("", controller.Create)
		v1Saved.GET("", controller.List)
		v1Saved.GET("/:id", controller.Get)
		v1Saved.GET("/:id/validation", controller.Validate)
		v1Saved.DELETE("/:id", controller.Delete)
	}
}

// Create godoc
// @Summary      Save a query
// @Description  Compiles the state and stores it with the generated NRQL. States that compile to a "-- " comment are rejected.
// @Tags         saved-queries
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SaveQueryRequest  true  "Name and state"
// @Success      201      {object}  model.SavedQuery
// @Failure      400      {object}  model.Response "Invalid body or state does not compile"
// @Failure      500      {object}  model.Response "Internal server error"
// @Router       /api/v1/saved-queries [post]
func (c *SavedQueryController) Create(ctx *gin.Context) {
	var req dto.SaveQueryRequest
	if !bindJSON(ctx, &req) {
		return
	}
	saved, err := c.savedQueryService.Create(ctx.Request.Context(), req)
	if err != nil {
		writeError(ctx, err, "Failed to save query")
		return
	}
	ctx.JSON(http.StatusCreated, saved)
}

// List godoc
// @Summary      List saved queries
// @Tags         saved-queries
// @Produce      json
// @Param        since  query     string  false  "Only queries created at or after this time (ISO 8601 or epoch ms)"
// @Success      200    {array}   model.SavedQuery
// @Failure      400    {object}  model.Response "Invalid since parameter"
// @Failure      500    {object}  model.Response "Internal server error"
// @Router       /api/v1/saved-queries [get]
func (c *SavedQueryController) List(ctx *gin.Context) {
	var since time.Time
	if raw := ctx.Query("since"); raw != "" {
		parsed, err := util.ParseTimeFlexible(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, model.NewResponse("invalid since format. Use ISO 8601 or epoch milliseconds", nil))
			return
		}
		since = parsed
	}
	queries, err := c.savedQueryService.List(ctx.Request.Context(), since)
	if err != nil {
		writeError(ctx, err, "Failed to list saved queries")
		return
	}
	ctx.JSON(http.StatusOK, queries)
}

// Get godoc
// @Summary      Get a saved query
// @Tags         saved-queries
// @Produce      json
// @Param        id   path      string  true  "Saved query id"
// @Success      200  {object}  model.SavedQuery
// @Failure      404  {object}  model.Response "Not found"
// @Failure      500  {object}  model.Response "Internal server error"
// @Router       /api/v1/saved-queries/{id} [get]
func (c *SavedQueryController) Get(ctx *gin.Context) {
	q, err := c.savedQueryService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		writeError(ctx, err, "Failed to load saved query")
		return
	}
	ctx.JSON(http.StatusOK, q)
}

// Validate godoc
// @Summary      Check a saved query for staleness
// @Tags         saved-queries
// @Produce      json
// @Param        id   path      string  true  "Saved query id"
// @Success      200  {object}  validator.Result
// @Failure      404  {object}  model.Response "Not found"
// @Failure      500  {object}  model.Response "Internal server error"
// @Router       /api/v1/saved-queries/{id}/validation [get]
func (c *SavedQueryController) Validate(ctx *gin.Context) {
	result, err := c.savedQueryService.Validate(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		writeError(ctx, err, "Failed to validate saved query")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Delete godoc
// @Summary      Delete a saved query
// @Tags         saved-queries
// @Produce      json
// @Param        id   path      string  true  "Saved query id"
// @Success      200  {object}  model.Response
// @Failure      404  {object}  model.Response "Not found"
// @Failure      500  {object}  model.Response "Internal server error"
// @Router       /api/v1/saved-queries/{id} [delete]
func (c *SavedQueryController) Delete(ctx *gin.Context) {
	if err := c.savedQueryService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		writeError(ctx, err, "Failed to delete saved query")
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("Saved query deleted", nil))
}

func writeError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrSavedQueryNotFound):
		ctx.JSON(http.StatusNotFound, model.NewResponse(err.Error(), nil))
	case errors.Is(err, service.ErrInvalidQuery):
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
	default:
		log.Error().Err(err).Msg(message)
		ctx.JSON(http.StatusInternalServerError, model.NewResponse(message, nil))
	}
}
