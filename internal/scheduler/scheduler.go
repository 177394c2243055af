package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"github.com/airemonte/termica-bot/internal/meteo"
)

// Sender delivers one message to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ForecastBuilder renders forecast tables for a set of locations.
type ForecastBuilder interface {
	BuildForecasts(ctx context.Context, locs []meteo.NamedLocation, horizonDays int) []string
}

// Config holds the daily broadcast settings.
type Config struct {
	ChatID      int64  // destination chat; 0 disables the broadcast
	At          string // local wall-clock time "HH:MM"; empty disables
	Locations   []meteo.NamedLocation
	HorizonDays int
	SendDelay   time.Duration
}

// Scheduler pushes the daily forecast to a configured chat.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sender    Sender
	builder   ForecastBuilder
	cfg       Config
	clock     clockwork.Clock
}

// New creates a new Scheduler running in the given timezone.
func New(tz *time.Location, sender Sender, builder ForecastBuilder, cfg Config) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(tz),
		sender:    sender,
		builder:   builder,
		cfg:       cfg,
		clock:     clockwork.NewRealClock(),
	}
}

// SetClock swaps the scheduler's time source; tests use it to skip send
// delays.
func (s *Scheduler) SetClock(c clockwork.Clock) {
	if c != nil {
		s.clock = c
	}
}

// Start schedules the daily broadcast and starts the underlying scheduler.
// With no chat or broadcast time configured it logs and does nothing.
func (s *Scheduler) Start() error {
	if s.cfg.ChatID == 0 || s.cfg.At == "" {
		log.Println("INFO: scheduler: no broadcast chat configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(1).Day().At(s.cfg.At).Do(s.broadcast)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("INFO: scheduler: daily broadcast at %s to chat %d", s.cfg.At, s.cfg.ChatID)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) broadcast() {
	log.Println("INFO: scheduler: running daily broadcast")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tables := s.builder.BuildForecasts(ctx, s.cfg.Locations, s.cfg.HorizonDays)
	for i, table := range tables {
		if i > 0 {
			s.clock.Sleep(s.cfg.SendDelay)
		}
		if err := s.sender.SendMessage(ctx, s.cfg.ChatID, "<pre>"+table+"</pre>"); err != nil {
			log.Printf("ERROR: scheduler: broadcast send failed: %v", err)
		}
	}
	log.Println("INFO: scheduler: completed daily broadcast")
}
