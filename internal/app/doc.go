// Package app is the composition layer of the hackathon workflow gateway.
//
// # Architecture Role
//
// The app package builds the domain services from their stores and
// collaborators and manages the lifecycle of background components. It holds
// no business rules of its own; those live in internal/app/services.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring and lifecycle
//	├── auth/               # Password hashing and HS256 tokens
//	├── core/service/       # Descriptors and store error mapping
//	├── domain/             # Domain models (project, team, profile, ...)
//	├── httpapi/            # HTTP routes and handlers (gorilla/mux)
//	├── metrics/            # Prometheus collectors
//	├── runtime/            # Config-driven process wiring for cmd/gateway
//	├── services/           # projects, teams, roster, generation, ...
//	├── storage/            # Store interfaces plus memory, postgres and supabase
//	└── system/             # Lifecycle manager
//
// # Dependency Direction
//
//	cmd/gateway/
//	      │
//	      ▼
//	internal/app/runtime ──► internal/config, internal/lock, internal/events,
//	      │                  internal/generator, supabase/client
//	      ▼
//	internal/app (composition)
//	      │
//	      ├──► internal/app/services (business logic)
//	      │           │
//	      │           └──► internal/app/storage (interfaces)
//	      │
//	      └──► internal/app/httpapi (transport)
//
// # Adding a New Stage Feature
//
//  1. Add the model to internal/app/domain/<name>/
//  2. Add the store interface to internal/app/storage/interfaces.go
//  3. Implement it in storage/memory, storage/postgres and storage/supabase
//  4. Write the service in internal/app/services/<name>/
//  5. Wire it in application.go and expose it in httpapi
package app
