package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"storefront/config"
	"storefront/loader"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// GetConfigHandler returns the current settings without the session secret.
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()
		cfg.SessionSecret = ""
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)
	}
}

// SaveConfigHandler stores new settings. Most of them apply on the next start.
func SaveConfigHandler(log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			writeJSONError(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if err := validateConfig(newCfg); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := config.SaveConfig(newCfg); err != nil {
			log.Error("failed to save config", zap.Error(err))
			writeJSONError(w, "Failed to save settings.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Settings saved."})
	}
}

func validateConfig(c config.Config) error {
	switch c.DatabaseDriver {
	case "", "sqlite3", "postgres":
	default:
		return errors.New("databaseDriver must be sqlite3 or postgres")
	}
	if _, err := loader.NormalizeEncoding(c.CatalogEncoding); err != nil {
		return errors.New("catalogEncoding must be utf-8 or shift_jis")
	}
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			return errors.New("locale is not a valid language tag: " + c.Locale)
		}
	}
	if c.SessionTTLHours < 0 {
		return errors.New("sessionTTLHours must not be negative")
	}
	return validateSeedPath(c.SeedPath)
}

func validateSeedPath(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New("seed file not found: " + path)
		}
		return errors.New("failed to check seed file")
	}
	if info.IsDir() {
		return errors.New("seed path is a directory: " + path)
	}
	return nil
}
