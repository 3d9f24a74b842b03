package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackcrew/service_layer/internal/app/auth"
	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/hackathon"
	"github.com/hackcrew/service_layer/internal/app/services/explore"
	"github.com/hackcrew/service_layer/internal/app/services/generation"
	ideationsvc "github.com/hackcrew/service_layer/internal/app/services/ideation"
	"github.com/hackcrew/service_layer/internal/app/services/identity"
	"github.com/hackcrew/service_layer/internal/app/services/profiles"
	"github.com/hackcrew/service_layer/internal/app/services/projects"
	"github.com/hackcrew/service_layer/internal/app/services/roster"
	"github.com/hackcrew/service_layer/internal/app/services/teams"
	"github.com/hackcrew/service_layer/internal/app/services/uploads"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/app/storage/memory"
	"github.com/hackcrew/service_layer/internal/app/system"
	"github.com/hackcrew/service_layer/internal/events"
	"github.com/hackcrew/service_layer/internal/lock"
	"github.com/hackcrew/service_layer/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Projects storage.ProjectStore
	Teams    storage.TeamStore
	Profiles storage.ProfileStore
	Ideation storage.IdeationStore
	Research storage.ResearchStore
	Accounts storage.AccountStore
	Objects  storage.ObjectStore
}

// Options carries the non-storage collaborators.
type Options struct {
	// Generator is required.
	Generator generation.Generator
	// Locker guards generation and team membership. Defaults to an
	// in-process keyed mutex.
	Locker lock.Locker
	// Events defaults to a no-op publisher.
	Events events.Publisher
	// Tokens defaults to a manager with a per-process random secret.
	Tokens *auth.Manager
	// Catalog defaults to the embedded hackathon catalog.
	Catalog []hackathon.Hackathon
	// UploadMaxBytes defaults to uploads.DefaultMaxBytes.
	UploadMaxBytes int64
	// HashCost overrides the bcrypt cost when non-zero.
	HashCost int
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logging.Logger

	Projects   *projects.Service
	Teams      *teams.Service
	Roster     *roster.Service
	Profiles   *profiles.Service
	Ideation   *ideationsvc.Service
	Generation *generation.Service
	Identity   *identity.Service
	Explore    *explore.Service
	Uploads    *uploads.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}

	mem := memory.New()
	if stores.Projects == nil {
		stores.Projects = mem
	}
	if stores.Teams == nil {
		stores.Teams = mem
	}
	if stores.Profiles == nil {
		stores.Profiles = mem
	}
	if stores.Ideation == nil {
		stores.Ideation = mem
	}
	if stores.Research == nil {
		stores.Research = mem
	}
	if stores.Accounts == nil {
		stores.Accounts = mem
	}
	if stores.Objects == nil {
		stores.Objects = memory.NewObjects("memory://research-docs")
	}

	if opts.Locker == nil {
		opts.Locker = lock.NewKeyedMutex()
	}
	if opts.Events == nil {
		opts.Events = events.Nop{}
	}
	if opts.Tokens == nil {
		log.Warn("no token manager configured; issuing tokens with a random secret")
		opts.Tokens = auth.NewManager(uuid.NewString(), 0, 0)
	}
	if opts.Catalog == nil {
		catalog, err := explore.LoadCatalog("")
		if err != nil {
			return nil, fmt.Errorf("load hackathon catalog: %w", err)
		}
		opts.Catalog = catalog
	}

	var identityOpts []identity.Option
	if opts.HashCost != 0 {
		identityOpts = append(identityOpts, identity.WithHashCost(opts.HashCost))
	}

	orch := generation.NewOrchestrator(opts.Locker, opts.Events, log)
	genStores := generation.Stores{
		Projects: stores.Projects,
		Teams:    stores.Teams,
		Profiles: stores.Profiles,
		Ideation: stores.Ideation,
		Research: stores.Research,
	}

	return &Application{
		manager:    system.NewManager(),
		log:        log,
		Projects:   projects.New(stores.Projects, opts.Events, log),
		Teams:      teams.New(stores.Teams, opts.Locker, log),
		Roster:     roster.New(stores.Projects, stores.Teams, stores.Profiles, log),
		Profiles:   profiles.New(stores.Profiles, log),
		Ideation:   ideationsvc.New(stores.Ideation, log),
		Generation: generation.New(genStores, opts.Generator, orch, log),
		Identity:   identity.New(stores.Accounts, opts.Tokens, log, identityOpts...),
		Explore:    explore.New(opts.Catalog),
		Uploads:    uploads.New(stores.Objects, stores.Research, opts.UploadMaxBytes, log),
	}, nil
}

// Descriptors lists every domain service for the info endpoint.
func (a *Application) Descriptors() []service.Descriptor {
	describers := []service.Describer{
		a.Projects, a.Teams, a.Roster, a.Profiles, a.Ideation,
		a.Generation, a.Identity, a.Explore, a.Uploads,
	}
	out := make([]service.Descriptor, 0, len(describers))
	for _, d := range describers {
		out = append(out, d.Descriptor())
	}
	return out
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(svc system.Service) error {
	return a.manager.Register(svc)
}

// Components lists attached lifecycle services.
func (a *Application) Components() []string {
	return a.manager.Names()
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
