package echoapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shughuli/core/activity"
)

type activityApi struct {
	svc *activity.Service
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *activity.Service) {
	api := activityApi{svc: svc}

	ag := g.Group("/activities", jwt)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/registrations", api.queryRegistrations)
	ag.GET("/:id/winners", api.queryWinners)
	ag.GET("/:id/winners.csv", api.exportWinners)
	ag.POST("/:id/announce", api.announce, organizerMiddleware())
	ag.POST("/:id/distribute", api.distribute, organizerMiddleware())

	g.GET("/awards", api.queryAwards, jwt)
}

type (
	// ActivityResponse decorates an activity with its derived lifecycle state.
	ActivityResponse struct {
		activity.Activity
		Status      string `json:"status"`
		CanAnnounce bool   `json:"can_announce"`
	}

	AnnounceResponse struct {
		ActivityResponse
		Winners []activity.Winner `json:"winners"`
	}
)

func newActivityResponse(act activity.Activity, detail bool) ActivityResponse {
	if !detail {
		act.Registrations = nil // list views stay lean
	}
	return ActivityResponse{
		Activity:    act,
		Status:      act.Status(),
		CanAnnounce: activity.CanAnnounce(act),
	}
}

// Handlers

func (api *activityApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	acts, err := api.svc.QueryAll(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}

	res := make([]ActivityResponse, 0, len(acts))
	for _, act := range acts {
		res = append(res, newActivityResponse(act, false))
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *activityApi) retrieve(ctx echo.Context) error {
	act, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding activity by ID")
	}
	return ctx.JSON(http.StatusOK, newActivityResponse(act, true))
}

func (api *activityApi) queryRegistrations(ctx echo.Context) error {
	regs, err := api.svc.QueryRegistrations(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying registrations")
	}
	if regs == nil {
		regs = []activity.Registration{}
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *activityApi) queryWinners(ctx echo.Context) error {
	winners, err := api.svc.Winners(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying winners")
	}
	if winners == nil {
		winners = []activity.Winner{}
	}
	return ctx.JSON(http.StatusOK, winners)
}

func (api *activityApi) exportWinners(ctx echo.Context) error {
	act, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding activity by ID")
	}
	winners, err := api.svc.Winners(ctx.Request().Context(), act.ID)
	if err != nil {
		return errors.Wrap(err, "querying winners")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", slugify(act.Title)+"-winners.csv"))
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write([]string{"rank", "name", "prize", "award", "team", "members"}); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, win := range winners {
		rec := []string{
			strconv.Itoa(win.Rank),
			win.Name,
			win.Prize,
			win.Award,
			strconv.FormatBool(win.IsTeam),
			strings.Join(win.Members, "; "),
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "writing csv record")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing csv")
}

func (api *activityApi) announce(ctx echo.Context) error {
	var data activity.AnnounceActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnnounceActivity")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	act, err := api.svc.Announce(ctx.Request().Context(), ctx.Param("id"), data.Assignments)
	if err != nil {
		return errors.Wrap(err, "announcing winners")
	}

	winners := activity.BuildWinners(act)
	activity.SortWinners(winners)
	return ctx.JSON(http.StatusOK, AnnounceResponse{
		ActivityResponse: newActivityResponse(act, false),
		Winners:          winners,
	})
}

func (api *activityApi) distribute(ctx echo.Context) error {
	outcome, err := api.svc.Distribute(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "distributing points")
	}
	return ctx.JSON(http.StatusOK, outcome)
}

func (api *activityApi) queryAwards(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, activity.Awards)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
