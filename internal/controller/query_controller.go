package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nrql-builder-backend/internal/dto"
	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/service"
)

type QueryController struct {
	queryService service.QueryService
}

func NewQueryController(queryService service.QueryService) *QueryController {
	return &QueryController{
		queryService: queryService,
	}
}

func RegisterQueryRoutes(router *gin.Engine, controller *QueryController) {
	router.GET("/api/v1/catalog", controller.GetCatalog)

	v1Queries := router.Group("/api/v1/queries")
	{
		v1Queries.GET("/initial", controller.GetInitialState)
		v1Queries.GET("/default-time-period", controller.GetDefaultTimePeriod)
		v1Queries.POST("/compile", controller.Compile)
		v1Queries.POST("/validate", controller.Validate)
		v1Queries.POST("/metric-items", controller.CreateMetricItem)
		v1Queries.POST("/filters", controller.CreateMetricFilter)
	}
	v1Actions := router.Group("/api/v1/queries/actions")
	{
		v1Actions.POST("/add-metric", controller.AddMetric)
		v1Actions.POST("/remove-metric", controller.RemoveMetric)
		v1Actions.POST("/update-metric", controller.UpdateMetric)
		v1Actions.POST("/add-filter", controller.AddFilter)
		v1Actions.POST("/update-filter", controller.UpdateFilter)
		v1Actions.POST("/remove-filter", controller.RemoveFilter)
	}
}

// GetCatalog godoc
// @Summary      Get the field catalog
// @Description  Lists the fields with their operators, the aggregations, applications, environments and facets a query may reference.
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  dto.CatalogResponse
// @Router       /api/v1/catalog [get]
func (c *QueryController) GetCatalog(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.queryService.Catalog())
}

// GetInitialState godoc
// @Summary      Get the initial query state
// @Tags         queries
// @Produce      json
// @Success      200  {object}  model.QueryState
// @Router       /api/v1/queries/initial [get]
func (c *QueryController) GetInitialState(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.queryService.InitialState())
}

// GetDefaultTimePeriod godoc
// @Summary      Get the default time period
// @Tags         queries
// @Produce      json
// @Success      200  {object}  model.TimePeriod
// @Router       /api/v1/queries/default-time-period [get]
func (c *QueryController) GetDefaultTimePeriod(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.queryService.DefaultTimePeriod())
}

// Compile godoc
// @Summary      Compile a query state to NRQL
// @Description  Returns the NRQL text for the state. Terminal problems come back as a "-- " comment with isError set.
// @Tags         queries
// @Accept       json
// @Produce      json
// @Param        state  body      model.QueryState  true  "Query state"
// @Success      200    {object}  dto.CompileResponse
// @Failure      400    {object}  model.Response "Invalid request body"
// @Router       /api/v1/queries/compile [post]
func (c *QueryController) Compile(ctx *gin.Context) {
	var state model.QueryState
	if !bindJSON(ctx, &state) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.Compile(state))
}

// Validate godoc
// @Summary      Check a saved state for stale references
// @Description  Reports catalog entries the state references that no longer exist and, when savedQuery is given, whether recompiling it still produces the same text.
// @Tags         queries
// @Accept       json
// @Produce      json
// @Param        request  body      dto.ValidateRequest  true  "State and optional saved NRQL"
// @Success      200      {object}  validator.Result
// @Failure      400      {object}  model.Response "Invalid request body"
// @Router       /api/v1/queries/validate [post]
func (c *QueryController) Validate(ctx *gin.Context) {
	var req dto.ValidateRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.Validate(req))
}

// CreateMetricItem godoc
// @Summary      Create a metric item
// @Description  String fields only accept non-numerical aggregations; anything else falls back to count.
// @Tags         queries
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateMetricItemRequest  true  "Field and aggregation"
// @Success      200      {object}  model.MetricQueryItem
// @Failure      400      {object}  model.Response "Invalid request body"
// @Router       /api/v1/queries/metric-items [post]
func (c *QueryController) CreateMetricItem(ctx *gin.Context) {
	var req dto.CreateMetricItemRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.CreateMetricItem(req))
}

// CreateMetricFilter godoc
// @Summary      Create a metric filter
// @Tags         queries
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateFilterRequest  false  "Field, defaults to response.status"
// @Success      200      {object}  model.MetricFilter
// @Router       /api/v1/queries/filters [post]
func (c *QueryController) CreateMetricFilter(ctx *gin.Context) {
	var req dto.CreateFilterRequest
	if ctx.Request.ContentLength != 0 && !bindJSON(ctx, &req) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.CreateMetricFilter(req))
}

// AddMetric godoc
// @Summary      Append a metric item to a state
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.AddMetricRequest  true  "State, field and aggregation"
// @Success      200      {object}  model.QueryState
// @Failure      400      {object}  model.Response "Invalid request body"
// @Router       /api/v1/queries/actions/add-metric [post]
func (c *QueryController) AddMetric(ctx *gin.Context) {
	var req dto.AddMetricRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.AddMetric(req))
}

// RemoveMetric godoc
// @Summary      Remove a metric item from a state
// @Description  The last remaining metric item cannot be removed.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.RemoveMetricRequest  true  "State and metric id"
// @Success      200      {object}  model.QueryState
// @Failure      400      {object}  model.Response "Invalid request body or last metric"
// @Router       /api/v1/queries/actions/remove-metric [post]
func (c *QueryController) RemoveMetric(ctx *gin.Context) {
	var req dto.RemoveMetricRequest
	if !bindJSON(ctx, &req) {
		return
	}
	state, err := c.queryService.RemoveMetric(req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// UpdateMetric godoc
// @Summary      Update a metric item
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.UpdateMetricRequest  true  "Item and patch"
// @Success      200      {object}  model.MetricQueryItem
// @Failure      400      {object}  model.Response "Invalid request body"
// @Router       /api/v1/queries/actions/update-metric [post]
func (c *QueryController) UpdateMetric(ctx *gin.Context) {
	var req dto.UpdateMetricRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.UpdateMetric(req))
}

// AddFilter godoc
// @Summary      Append a filter to a metric item
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.AddFilterRequest  true  "Item and filter field"
// @Success      200      {object}  model.MetricQueryItem
// @Failure      400      {object}  model.Response "Invalid request body"
// @Router       /api/v1/queries/actions/add-filter [post]
func (c *QueryController) AddFilter(ctx *gin.Context) {
	var req dto.AddFilterRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.AddFilter(req))
}

// UpdateFilter godoc
// @Summary      Update a filter of a metric item
// @Description  Moving a filter to another field resets its operator to that field's default.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.UpdateFilterRequest  true  "Item, filter id and patch"
// @Success      200      {object}  model.MetricQueryItem
// @Failure      400      {object}  model.Response "Invalid request body"
// @Router       /api/v1/queries/actions/update-filter [post]
func (c *QueryController) UpdateFilter(ctx *gin.Context) {
	var req dto.UpdateFilterRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.UpdateFilter(req))
}

// RemoveFilter godoc
// @Summary      Remove a filter from a metric item
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.RemoveFilterRequest  true  "Item and filter id"
// @Success      200      {object}  model.MetricQueryItem
// @Failure      400      {object}  model.Response "Invalid request body"
// @Router       /api/v1/queries/actions/remove-filter [post]
func (c *QueryController) RemoveFilter(ctx *gin.Context) {
	var req dto.RemoveFilterRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ctx.JSON(http.StatusOK, c.queryService.RemoveFilter(req))
}

func bindJSON(ctx *gin.Context, target any) bool {
	if err := ctx.ShouldBindJSON(target); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return false
	}
	return true
}
