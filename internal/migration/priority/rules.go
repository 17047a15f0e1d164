package priority

import "strings"

// criticalRule tags one pattern the application cannot come up without.
// Rules are evaluated in order and unconditionally override size-based
// classification, so precedence stays auditable in one table.
type criticalRule struct {
	Name  string
	Match func(key string, cfg Config) bool
}

func keyContainsAny(key string, terms ...string) bool {
	k := strings.ToLower(key)
	for _, term := range terms {
		if strings.Contains(k, term) {
			return true
		}
	}
	return false
}

var criticalRules = []criticalRule{
	{
		Name: "app settings",
		Match: func(key string, _ Config) bool {
			return keyContainsAny(key, "settings", "preferences", "appconfig", "app_config")
		},
	},
	{
		Name: "active record",
		Match: func(key string, cfg Config) bool {
			return cfg.ActiveRecordID != "" && strings.Contains(key, cfg.ActiveRecordID)
		},
	},
	{
		Name: "roster index",
		Match: func(key string, _ Config) bool {
			return keyContainsAny(key, "roster", "index")
		},
	},
	{
		Name: "schema version",
		Match: func(key string, _ Config) bool {
			return keyContainsAny(key, "version", "migration")
		},
	},
}

func matchCritical(key string, cfg Config) (string, bool) {
	for _, r := range criticalRules {
		if r.Match(key, cfg) {
			return r.Name, true
		}
	}
	return "", false
}

// isHistoricalRecord reports whether the key names played-history data
// (games, matches, collected stats).
func isHistoricalRecord(key string) bool {
	return keyContainsAny(key, "game", "match", "history", "stat")
}

// isGrouping reports whether the key names a grouping construct such as a
// season or tournament.
func isGrouping(key string) bool {
	return keyContainsAny(key, "season", "tournament")
}
