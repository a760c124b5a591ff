package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/greenplot/ecdash/internal/analysis"
	"github.com/greenplot/ecdash/internal/config"
	"github.com/greenplot/ecdash/internal/dataset"
	"github.com/greenplot/ecdash/internal/export"
	"github.com/greenplot/ecdash/internal/report"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BuildServer wires the dashboard routes over the given store and
// configuration. Every request recomputes its view from the store's current
// snapshot; the store only re-reads files when the directory changed.
func BuildServer(store *dataset.Store, cfg *config.Global, loglevel string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
	}

	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		if errors.Is(err, dataset.ErrNoData) {
			err = echo.NewHTTPError(http.StatusServiceUnavailable,
				"데이터 파일을 찾을 수 없습니다. data 폴더를 확인하세요.")
		}
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// logging for server-side latency.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			begin := time.Now()
			err := next(c)
			c.Logger().Infof(
				"%s %s -> %d in %v",
				c.Request().Method, c.Request().URL, c.Response().Status, time.Since(begin),
			)
			return err
		}
	})

	h := &handler{store: store, cfg: cfg}
	e.GET("/", h.dashboard)
	e.GET("/healthz", h.healthz)
	e.GET("/charts/:name", h.chart)
	e.GET("/export/env/:file", h.exportEnv)
	e.GET("/export/growth.xlsx", h.exportGrowth)
	return e
}

type handler struct {
	store *dataset.Store
	cfg   *config.Global
}

func (h *handler) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *handler) dashboard(c echo.Context) error {
	snap, err := h.store.Load(c.Request().Context())
	if err != nil {
		return err
	}
	sum := analysis.Summarize(snap, h.cfg)

	selected := dataset.Normalize(c.QueryParam("group"))
	if selected != "" {
		if _, ok := snap.Env[selected]; !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown group %q", selected))
		}
	}

	pc := report.PageConfig{
		Title:         h.cfg.ReportTitle,
		SelectedGroup: selected,
		ChartBase:     "/charts/",
		ExportBase:    "/export/",
		Warnings:      snap.Layout.Warnings,
	}
	if selected != "" {
		pc.TimeSeries = []report.Image{{
			Group: selected,
			Src:   "/charts/timeseries.png?group=" + url.QueryEscape(selected),
		}}
	}
	page, err := report.Page(pc, sum, sum.GroupsWithEnv(snap))
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (h *handler) chart(c echo.Context) error {
	snap, err := h.store.Load(c.Request().Context())
	if err != nil {
		return err
	}
	sum := analysis.Summarize(snap, h.cfg)

	name := strings.TrimSuffix(c.Param("name"), ".png")
	var png []byte
	if name == "timeseries" {
		png, err = h.timeSeries(snap, sum, dataset.Normalize(c.QueryParam("group")))
	} else {
		found := false
		for _, ch := range report.Charts(h.cfg, sum) {
			if ch.Name == name {
				png, err = ch.Build()
				found = true
				break
			}
		}
		if !found {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown chart %q", name))
		}
	}
	if err != nil {
		if errors.Is(err, report.ErrNoSeries) {
			return echo.NewHTTPError(http.StatusNotFound, "no data for chart")
		}
		return err
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *handler) timeSeries(snap *dataset.Snapshot, sum *analysis.Summary, group string) ([]byte, error) {
	tbl, ok := snap.Env[group]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown group %q", group))
	}
	var em analysis.EnvMeans
	for _, e := range sum.Env {
		if e.Group == group {
			em = e
			break
		}
	}
	times, err := tbl.Column("time")
	if err != nil {
		return nil, err
	}
	return report.TimeSeries(h.cfg, group, em, times,
		tbl.FloatCells("temperature"), tbl.FloatCells("humidity"), tbl.FloatCells("ec"))
}

func (h *handler) exportEnv(c echo.Context) error {
	snap, err := h.store.Load(c.Request().Context())
	if err != nil {
		return err
	}
	group := dataset.Normalize(strings.TrimSuffix(c.Param("file"), ".csv"))
	tbl, ok := snap.Env[group]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown group %q", group))
	}
	b, err := export.EnvironmentCSV(tbl)
	if err != nil {
		return err
	}
	// Group names are Hangul; RFC 5987 encoding keeps the header ASCII.
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="environment.csv"; filename*=UTF-8''%s`,
			url.PathEscape(group+"_환경데이터.csv")))
	return c.Blob(http.StatusOK, "text/csv", b)
}

func (h *handler) exportGrowth(c echo.Context) error {
	snap, err := h.store.Load(c.Request().Context())
	if err != nil {
		return err
	}
	sum := analysis.Summarize(snap, h.cfg)
	groups := make([]string, 0, len(snap.Growth))
	for _, row := range sum.Growth {
		if _, ok := snap.Growth[row.Group]; ok {
			groups = append(groups, row.Group)
		}
	}
	b, err := export.GrowthWorkbook(h.cfg, groups, snap.Growth, sum.LongForm)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="growth_results.xlsx"`)
	return c.Blob(http.StatusOK, xlsxMIME, b)
}
