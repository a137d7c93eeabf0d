package main

import (
	"context"
	"database/sql"
	"fmt"
)

// entityBinding resolves a config entity ID to the provider serving it
// and the backend calendar ID it maps to.
type entityBinding struct {
	provider   CalendarProvider
	calendarID string
	readOnly   bool
}

// CalendarFactory builds one provider per Google account / CalDAV server
// referenced by the config and binds every configured entity ID to its
// provider. It implements CalendarGateway on top of those bindings.
type CalendarFactory struct {
	config    *Config
	db        *sql.DB
	ctx       context.Context
	providers map[string]CalendarProvider
	entities  map[string]entityBinding
}

// NewCalendarFactory creates providers for every account and server the
// config references. Provider construction talks to the backends, so a
// dead CalDAV server fails here rather than mid-run.
func NewCalendarFactory(ctx context.Context, config *Config, db *sql.DB) (*CalendarFactory, error) {
	cf := &CalendarFactory{
		config:    config,
		db:        db,
		ctx:       ctx,
		providers: make(map[string]CalendarProvider),
		entities:  make(map[string]entityBinding),
	}

	for _, p := range config.Parents {
		if err := cf.bind(p.EntityID, p.Provider, p.Account, p.Server, p.CalendarID); err != nil {
			return nil, err
		}
	}
	for _, ch := range config.Children {
		if err := cf.bind(ch.EntityID, ch.Provider, ch.Account, ch.Server, ch.CalendarID); err != nil {
			return nil, err
		}
	}

	return cf, nil
}

func (cf *CalendarFactory) bind(entityID, providerType, account, server, calendarID string) error {
	var key string
	switch providerType {
	case "google":
		key = "google-" + account
	case "caldav":
		key = "caldav-" + server
	default:
		return fmt.Errorf("unsupported provider type: %s", providerType)
	}

	provider, exists := cf.providers[key]
	if !exists {
		var err error
		switch providerType {
		case "google":
			client := getClient(cf.ctx, oauthConfig, cf.db, account)
			provider, err = NewGoogleCalendarProvider(cf.ctx, client)
			if err != nil {
				return fmt.Errorf("error creating Google calendar provider: %w", err)
			}
		case "caldav":
			serverConfig := cf.config.CalDAVs[server]
			provider, err = NewCalDAVProvider(cf.ctx, serverConfig.ServerURL, serverConfig.Username, serverConfig.Password, serverConfig.ReadOnly)
			if err != nil {
				return fmt.Errorf("error connecting to CalDAV server %s: %w", server, err)
			}
		}
		cf.providers[key] = provider
	}

	readOnly := false
	if providerType == "caldav" {
		readOnly = cf.config.CalDAVs[server].ReadOnly
	}
	cf.entities[entityID] = entityBinding{provider: provider, calendarID: calendarID, readOnly: readOnly}
	return nil
}

func (cf *CalendarFactory) resolve(entityID string) (entityBinding, error) {
	binding, ok := cf.entities[entityID]
	if !ok {
		return entityBinding{}, fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	}
	return binding, nil
}

func (cf *CalendarFactory) ListEvents(entityID string, window SyncWindow) ([]*Event, error) {
	binding, err := cf.resolve(entityID)
	if err != nil {
		return nil, err
	}
	return binding.provider.ListEvents(binding.calendarID, window.Start, window.End)
}

func (cf *CalendarFactory) CreateEvent(entityID string, event *Event) (string, error) {
	binding, err := cf.resolve(entityID)
	if err != nil {
		return "", err
	}
	if binding.readOnly {
		return "", fmt.Errorf("%w: %s", ErrWriteUnsupported, entityID)
	}
	return binding.provider.AddEvent(binding.calendarID, event)
}

func (cf *CalendarFactory) UpdateEvent(entityID string, sourceUID string, event *Event) error {
	binding, err := cf.resolve(entityID)
	if err != nil {
		return err
	}
	if binding.readOnly {
		return fmt.Errorf("%w: %s", ErrWriteUnsupported, entityID)
	}
	return binding.provider.UpdateEvent(binding.calendarID, sourceUID, event)
}

func (cf *CalendarFactory) DeleteEvent(entityID string, sourceUID string) error {
	binding, err := cf.resolve(entityID)
	if err != nil {
		return err
	}
	if binding.readOnly {
		return fmt.Errorf("%w: %s", ErrWriteUnsupported, entityID)
	}
	return binding.provider.DeleteEvent(binding.calendarID, sourceUID)
}

// ValidateCalendarAccess checks if the bound calendar is reachable.
func (cf *CalendarFactory) ValidateCalendarAccess(entityID string) error {
	binding, err := cf.resolve(entityID)
	if err != nil {
		return err
	}
	return binding.provider.GetCalendar(binding.calendarID)
}
