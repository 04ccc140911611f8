package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

var _ newsd.SettingsService = (*Repo)(nil)

// Get returns the singleton settings row, seeding it with defaults on the
// first read.
func (r Repo) Get(ctx context.Context) (newsd.Settings, error) {
	const seed = `INSERT OR IGNORE INTO settings (id, language, interval_minutes, notifications_enabled, wifi_only)
	VALUES (1, ?, ?, ?, ?);`

	defaults := newsd.DefaultSettings()
	if _, err := r.db.ExecContext(ctx, seed,
		defaults.Language, defaults.Interval, defaults.NotificationsEnabled, defaults.WifiOnly,
	); err != nil {
		return newsd.Settings{}, fmt.Errorf("error seeding settings: %s", err)
	}

	const q = `SELECT language, interval_minutes, notifications_enabled, wifi_only FROM settings WHERE id = 1;`
	var s newsd.Settings
	if err := r.db.GetContext(ctx, &s, q); err != nil {
		return newsd.Settings{}, fmt.Errorf("error fetching settings: %s", err)
	}

	return s, nil
}

func (r Repo) SetLanguage(ctx context.Context, l newsd.Language) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return r.updateSetting(ctx, "language", l)
}

func (r Repo) SetInterval(ctx context.Context, i newsd.Interval) error {
	if err := i.Validate(); err != nil {
		return err
	}
	return r.updateSetting(ctx, "interval_minutes", i)
}

func (r Repo) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return r.updateSetting(ctx, "notifications_enabled", enabled)
}

func (r Repo) SetWifiOnly(ctx context.Context, wifiOnly bool) error {
	return r.updateSetting(ctx, "wifi_only", wifiOnly)
}

// updateSetting persists a single field. Get seeds the row first so setters
// work even before anything has read the settings.
func (r Repo) updateSetting(ctx context.Context, column string, value any) error {
	if _, err := r.Get(ctx); err != nil {
		return err
	}

	query, args, err := sq.Update("settings").Set(column, value).Where(sq.Eq{"id": 1}).ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error updating %s: %s", column, err)
	}
	r.settingChanges.bump()

	return nil
}

// Watch emits the current settings immediately and the full settings object
// again after every committed mutation, until ctx is done.
func (r Repo) Watch(ctx context.Context) <-chan newsd.Settings {
	out := make(chan newsd.Settings, 1)
	id, sig := r.settingChanges.subscribe()

	go func() {
		defer close(out)
		defer r.settingChanges.unsubscribe(id)

		for {
			s, err := r.Get(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("error refreshing watched settings", "error", err)
				}
				return
			}
			sendLatest(out, s)

			select {
			case <-ctx.Done():
				return
			case <-sig:
			}
		}
	}()

	return out
}
