package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/BurntSushi/toml"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	configFileName    = ".fcsync.toml"
	dbFileName        = ".fcsync.db"
	defaultDaysToSync = 7
)

type Config struct {
	Options  Options                 `toml:"options"`
	Google   GoogleConfig            `toml:"google"`
	CalDAVs  map[string]CalDAVConfig `toml:"caldav"`
	Parents  []ParentConfig          `toml:"parent"`
	Children []ChildConfig           `toml:"child"`
}

type Options struct {
	DaysToSync                   int    `toml:"days_to_sync"`
	IgnoreEventIfTitleStartsWith string `toml:"ignore_event_if_title_starts_with"`
	VerbosityLevel               int    `toml:"verbosity_level"`
	SyncSchedule                 string `toml:"sync_schedule"`
}

type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

type CalDAVConfig struct {
	Name      string `toml:"name"`
	ServerURL string `toml:"server_url"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	ReadOnly  bool   `toml:"read_only"`
}

// ParentConfig binds an entity ID to a backend calendar. Provider is
// "google" or "caldav"; Account names the Google account whose token to
// use, Server names a [caldav.<name>] section.
type ParentConfig struct {
	EntityID   string `toml:"entity_id"`
	Provider   string `toml:"provider"`
	Account    string `toml:"account"`
	Server     string `toml:"server"`
	CalendarID string `toml:"calendar_id"`
}

type ChildConfig struct {
	EntityID    string   `toml:"entity_id"`
	Provider    string   `toml:"provider"`
	Account     string   `toml:"account"`
	Server      string   `toml:"server"`
	CalendarID  string   `toml:"calendar_id"`
	Keywords    []string `toml:"keywords"`
	CopyAllFrom string   `toml:"copy_all_from"`
}

var oauthConfig *oauth2.Config
var configDir string
var verbosityLevel int

func initOAuthConfig(config *Config) {
	oauthConfig = &oauth2.Config{
		ClientID:     config.Google.ClientID,
		ClientSecret: config.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarScope},
	}
}

func readConfig(filename string) (*Config, error) {
	// Try first the current dir, then `$HOME/.config/fcsync/`
	data, err := os.ReadFile(filename)
	if err != nil {
		data, err = os.ReadFile(os.Getenv("HOME") + "/.config/fcsync/" + filename)
		if err != nil {
			return nil, err
		}
		configDir = os.Getenv("HOME") + "/.config/fcsync/"
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	verbosityLevel = config.Options.VerbosityLevel
	initOAuthConfig(&config)

	return &config, nil
}

func (c *Config) validate() error {
	if c.Options.DaysToSync < 0 {
		return fmt.Errorf("options.days_to_sync must be positive, got %d", c.Options.DaysToSync)
	}
	if c.Options.DaysToSync == 0 {
		c.Options.DaysToSync = defaultDaysToSync
	}
	if len(c.Parents) == 0 || len(c.Children) == 0 {
		return fmt.Errorf("need at least one parent and one child calendar, got %d parent, %d child",
			len(c.Parents), len(c.Children))
	}

	parentIDs := make(map[string]bool)
	seen := make(map[string]bool)
	for _, p := range c.Parents {
		if err := c.validateBinding(p.EntityID, p.Provider, p.Account, p.Server, p.CalendarID); err != nil {
			return err
		}
		if seen[p.EntityID] {
			return fmt.Errorf("duplicate entity_id %q", p.EntityID)
		}
		seen[p.EntityID] = true
		parentIDs[p.EntityID] = true
	}
	for _, ch := range c.Children {
		if err := c.validateBinding(ch.EntityID, ch.Provider, ch.Account, ch.Server, ch.CalendarID); err != nil {
			return err
		}
		if seen[ch.EntityID] {
			return fmt.Errorf("duplicate entity_id %q", ch.EntityID)
		}
		seen[ch.EntityID] = true
		if ch.CopyAllFrom != "" && !parentIDs[ch.CopyAllFrom] {
			return fmt.Errorf("child %q: copy_all_from %q is not a configured parent", ch.EntityID, ch.CopyAllFrom)
		}
		if ch.CopyAllFrom == "" && len(ch.Keywords) == 0 {
			return fmt.Errorf("child %q: needs keywords or copy_all_from", ch.EntityID)
		}
	}
	return nil
}

func (c *Config) validateBinding(entityID, provider, account, server, calendarID string) error {
	if entityID == "" {
		return fmt.Errorf("calendar with id %q is missing an entity_id", calendarID)
	}
	if calendarID == "" {
		return fmt.Errorf("calendar %q is missing a calendar_id", entityID)
	}
	switch provider {
	case "google":
		if account == "" {
			return fmt.Errorf("calendar %q: google calendars need an account name", entityID)
		}
	case "caldav":
		if _, ok := c.CalDAVs[server]; !ok {
			return fmt.Errorf("calendar %q: CalDAV server %q not found in configuration", entityID, server)
		}
	default:
		return fmt.Errorf("calendar %q: unsupported provider type: %s", entityID, provider)
	}
	return nil
}

// parentIDs returns the parent entity IDs in config order.
func (c *Config) parentIDs() []string {
	ids := make([]string, 0, len(c.Parents))
	for _, p := range c.Parents {
		ids = append(ids, p.EntityID)
	}
	return ids
}

// childRules converts the child config blocks to reconciliation rules.
func (c *Config) childRules() []ChildRule {
	rules := make([]ChildRule, 0, len(c.Children))
	for _, ch := range c.Children {
		rules = append(rules, ChildRule{
			EntityID:    ch.EntityID,
			Keywords:    ch.Keywords,
			CopyAllFrom: ch.CopyAllFrom,
		})
	}
	return rules
}

func (c *Config) syncOptions() SyncOptions {
	return SyncOptions{
		DaysToSync:   c.Options.DaysToSync,
		IgnorePrefix: c.Options.IgnoreEventIfTitleStartsWith,
	}
}

func openDB(filename string) (*sql.DB, error) {
	// Try first the same dir where the config file was found
	db, err := sql.Open("sqlite3", configDir+filename)
	if err != nil {
		db, err = sql.Open("sqlite3", filename)
		if err != nil {
			return nil, err
		}
	}
	return db, nil
}

func getTokenFromWeb(config *oauth2.Config) *oauth2.Token {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Unable to read authorization code: %v", err)
	}

	tok, err := config.Exchange(context.TODO(), authCode)
	if err != nil {
		log.Fatalf("Unable to retrieve token from web: %v", err)
	}
	return tok
}

func saveToken(db *sql.DB, accountName string, token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return err
	}

	_, err = db.Exec("INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", accountName, tokenJSON)
	return err
}

func getClient(ctx context.Context, config *oauth2.Config, db *sql.DB, accountName string) *http.Client {
	var tokenJSON []byte
	err := db.QueryRow("SELECT token FROM tokens WHERE account_name = ?", accountName).Scan(&tokenJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			fmt.Printf("  ❗️ No token found for account %s. Obtaining a new token.\n", accountName)
			token := getTokenFromWeb(config)
			saveToken(db, accountName, token)
			return config.Client(ctx, token)
		}
		log.Fatalf("Error retrieving token from database: %v", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		log.Fatalf("Error unmarshaling token: %v", err)
	}

	// TokenSource refreshes transparently; persist any refreshed token so
	// the next run starts from it.
	tokenSource := config.TokenSource(ctx, &token)
	newToken, err := tokenSource.Token()
	if err != nil {
		fmt.Printf("  ❗️ Token expired or revoked for account %s. Obtaining a new token.\n", accountName)
		newToken = getTokenFromWeb(config)
	}
	if newToken.AccessToken != token.AccessToken {
		saveToken(db, accountName, newToken)
	}

	return config.Client(ctx, newToken)
}

func printVerbosely(verbosity int, format string, a ...interface{}) {
	// Print only if verbosity is higher than verbosityLevel
	// 0 - only critical errors and the final report
	// 1 - list calendars being synced
	// 2 - list events being created/updated/deleted
	// 3 - report on events skipped or kept
	if verbosity <= verbosityLevel {
		fmt.Printf(format, a...)
	}
}
