package backend

import (
	"fmt"

	"spendwise/internal/config"
	"spendwise/internal/firebaseapp"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          t,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		MongoURI:      appConfig.MongoURI,
		MongoDatabase: appConfig.MongoDatabase,
		Firebase:      FirebaseConfig(appConfig),
	}, nil
}

// FirebaseConfig extracts the Admin SDK settings shared by the Firestore
// backend and the Firebase token verifier.
func FirebaseConfig(appConfig *config.Config) firebaseapp.Config {
	return firebaseapp.Config{
		ProjectID:       appConfig.FirebaseProjectID,
		CredentialsJSON: appConfig.FirebaseCredentialsJSON,
		CredentialsFile: appConfig.FirebaseCredentialsFile,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case Mongo:
		if c.MongoURI == "" {
			return fmt.Errorf("Mongo URI is required for mongo backend")
		}
	case Firestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("Firebase project ID is required for firestore backend")
		}
	}

	return nil
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{Memory, SQLite, Firestore, Mongo}
}

// TypeStrings returns all valid backend type strings
func TypeStrings() []string {
	types := Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
