package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type refresher interface {
	Refresh() error
	InvalidateCache()
}

// Cron schedules the nightly refresh. Its real job is making sure nothing
// computed from "today" survives past midnight; reloading the snapshot at
// the same time is a freebie.
type Cron struct {
	c   *cron.Cron
	srv refresher
}

// New builds the scheduler in the given location with a standard five-field
// cron spec.
func New(spec string, loc *time.Location, srv refresher) (*Cron, error) {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
	)
	cr := &Cron{c: c, srv: srv}
	if _, err := c.AddFunc(spec, cr.refresh); err != nil {
		return nil, err
	}
	return cr, nil
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) refresh() {
	log.Info().Msg("cron: nightly refresh")
	if err := cr.srv.Refresh(); err != nil {
		log.Error().Err(err).Msg("cron: refresh failed, dropping cache only")
		cr.srv.InvalidateCache()
	}
}
