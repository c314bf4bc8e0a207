package ui

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jugglerbayes/app"
	"jugglerbayes/domain/setting"
	apperrors "jugglerbayes/internal/errors"
	"jugglerbayes/internal/report"
)

// catalogRow is one line of the settings table beside the form
type catalogRow struct {
	Label       setting.Label
	Probability float64
	Prior       float64
}

// pageData feeds index.html
type pageData struct {
	Catalog   string
	Rows      []catalogRow
	Trials    string
	Successes string
	From      string
	To        string
	Step      string
	Error     string
	Warning   string
	Report    template.HTML
}

func (s *Server) newPageData() *pageData {
	catalog := s.service.Catalog()
	data := &pageData{Catalog: catalog.Name, Step: "10"}
	for _, l := range catalog.Labels() {
		data.Rows = append(data.Rows, catalogRow{
			Label:       l,
			Probability: catalog.Probabilities[l],
			Prior:       catalog.Priors[l],
		})
	}
	return data
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "index.html", s.newPageData())
}

func (s *Server) handleEstimate(c *gin.Context) {
	data := s.newPageData()
	data.Trials = strings.TrimSpace(c.PostForm("trials"))
	data.Successes = strings.TrimSpace(c.PostForm("successes"))

	trials, err1 := strconv.Atoi(data.Trials)
	successes, err2 := strconv.Atoi(data.Successes)
	if err1 != nil || err2 != nil {
		s.renderError(c, data, apperrors.InvalidInput("total games and successes must be whole numbers"))
		return
	}

	r, err := s.service.Estimate(c.Request.Context(), app.EstimateRequest{Trials: trials, Successes: successes})
	if err != nil {
		s.renderError(c, data, err)
		return
	}
	if r.Result.Indeterminate {
		data.Warning = report.IndeterminateMessage
	}
	data.Report = template.HTML(report.HTML(report.Markdown(r)))
	s.renderTemplate(c, http.StatusOK, "index.html", data)
}

func (s *Server) handleSweep(c *gin.Context) {
	data := s.newPageData()
	data.Trials = strings.TrimSpace(c.PostForm("trials"))
	data.From = strings.TrimSpace(c.PostForm("from"))
	data.To = strings.TrimSpace(c.PostForm("to"))
	data.Step = strings.TrimSpace(c.PostForm("step"))

	var req app.SweepRequest
	fields := []struct {
		raw string
		dst *int
	}{
		{data.Trials, &req.Trials},
		{data.From, &req.From},
		{data.To, &req.To},
		{data.Step, &req.Step},
	}
	for _, f := range fields {
		v, err := strconv.Atoi(f.raw)
		if err != nil {
			s.renderError(c, data, apperrors.InvalidInput("sweep fields must be whole numbers"))
			return
		}
		*f.dst = v
	}

	r, err := s.service.Sweep(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, data, err)
		return
	}
	data.Report = template.HTML(report.HTML(report.SweepMarkdown(r)))
	s.renderTemplate(c, http.StatusOK, "index.html", data)
}

func (s *Server) renderError(c *gin.Context, data *pageData, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
		err = apperrors.InternalError("internal error")
	}
	data.Error = err.Error()
	s.renderTemplate(c, status, "index.html", data)
}
