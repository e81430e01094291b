package httpapi

import (
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"flowlens/internal/flow"
)

// Handlers serves the analytics API off a Server.
type Handlers struct {
	srv *Server
}

func NewHandlers(s *Server) *Handlers {
	return &Handlers{srv: s}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RefreshNow reloads the snapshot in the background.
func (h *Handlers) RefreshNow(c *gin.Context) {
	go func() { _ = h.srv.Refresh() }()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) Summary(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asOf":     a.AsOf,
		"summary":  a.Summary,
		"forecast": a.Forecast,
		"warnings": a.Warnings,
	})
}

func (h *Handlers) Items(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": a.Records})
}

// Throughput returns the completion count for an inclusive date range, or
// a bucketed series when a bucket is requested.
func (h *Handlers) Throughput(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	start, okStart := h.dateParam(c, "start")
	end, okEnd := h.dateParam(c, "end")
	if !okStart || !okEnd {
		return
	}

	records := recordSlice(a)

	if bucket := c.Query("bucket"); bucket != "" {
		w := flow.NewWindow(start, end, bucket)
		c.JSON(http.StatusOK, gin.H{"window": w, "buckets": flow.ThroughputSeries(records, w)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
		"count": flow.Throughput(records, start, end),
	})
}

func (h *Handlers) CumulativeFlow(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.CFD)
}

func (h *Handlers) Burnup(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.Burnup)
}

// Burndown charts an explicit interval, typically a sprint.
func (h *Handlers) Burndown(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	start, okStart := h.dateParam(c, "start")
	end, okEnd := h.dateParam(c, "end")
	if !okStart || !okEnd {
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end before start"})
		return
	}
	c.JSON(http.StatusOK, flow.Burndown(a.Items(), a.CompletionRecords(), start, end, a.Unit()))
}

// Forecast returns the velocity extrapolation plus Monte-Carlo percentiles
// from recent daily throughput.
func (h *Handlers) Forecast(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	trailing := h.srv.cfg.Analysis.TrailingWeeks
	if q := c.Query("trailing_weeks"); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 {
			trailing = v
		}
	}
	forecast := flow.Forecast(a.Burnup, trailing, a.AsOf, h.srv.cfg.Analysis.UnitLabel())

	remaining := 0
	for _, rec := range a.CompletionRecords() {
		if !rec.Completed() {
			remaining++
		}
	}
	// Seed from the snapshot and day so repeated calls agree until the
	// data or the date changes.
	hist := flow.NewThroughputHistogram(recordSlice(a), a.AsOf.AddDate(0, 0, -12*7), a.AsOf)
	sim := flow.NewSimulator(hist, simSeed(h.srv.Fingerprint(), a.AsOf)).Run(remaining, 5000)

	c.JSON(http.StatusOK, gin.H{"forecast": forecast, "simulation": sim})
}

func (h *Handlers) WIPAging(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"asOf": a.AsOf, "items": a.WIPAging})
}

// RequiredThroughput answers "what weekly pace, and how many people, to
// finish the remaining work by this date".
func (h *Handlers) RequiredThroughput(c *gin.Context) {
	a, ok := h.analysis(c)
	if !ok {
		return
	}
	target, okTarget := h.dateParam(c, "target")
	if !okTarget {
		return
	}

	remaining := a.Burnup.Last("scope") - a.Burnup.Last("completed")
	required, feasible := flow.RequiredThroughput(remaining, target, a.AsOf)
	resp := gin.H{
		"remaining": remaining,
		"unit":      h.srv.cfg.Analysis.UnitLabel(),
		"feasible":  feasible,
	}
	if feasible {
		resp["requiredWeeklyThroughput"] = required
	}

	if teamStr := c.Query("team_size"); teamStr != "" && feasible {
		teamSize, _ := strconv.Atoi(teamStr)
		base := a.Forecast.TrendWeeklyVelocity
		if q := c.Query("base_velocity"); q != "" {
			if v, err := strconv.ParseFloat(q, 64); err == nil {
				base = v
			}
		}
		if people, ok := flow.PeopleNeeded(required, base, teamSize); ok {
			resp["peopleNeeded"] = people
		}
	}
	c.JSON(http.StatusOK, resp)
}

// analysis fetches today's memoized run. The bool is false when an error
// response was already written.
func (h *Handlers) analysis(c *gin.Context) (*flow.Analysis, bool) {
	a, err := h.srv.analysis(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return a, true
}

// dateParam parses a required YYYY-MM-DD query parameter in the server's
// timezone.
func (h *Handlers) dateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + name})
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", raw, h.srv.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad " + name + ": " + raw})
		return time.Time{}, false
	}
	return t, true
}

func simSeed(fingerprint string, asOf time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(fingerprint))
	h.Write([]byte(asOf.Format("2006-01-02")))
	return int64(h.Sum64())
}

func recordSlice(a *flow.Analysis) []flow.CompletionRecord {
	out := make([]flow.CompletionRecord, 0, len(a.Records))
	for _, rec := range a.CompletionRecords() {
		out = append(out, rec)
	}
	return out
}
