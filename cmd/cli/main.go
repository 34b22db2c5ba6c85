// Command fp is a CLI client for the FoodPocket service.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ---- config/token store ----

type tokenFile struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	PocketUID  string    `json:"pocket_uid,omitempty"`
	PocketName string    `json:"pocket_name,omitempty"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "foodpocket")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "foodpocket")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveSession(tf tokenFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadSession() (tokenFile, error) {
	var tf tokenFile
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tf, errors.New("not logged in (run fp login)")
	}
	if err := json.Unmarshal(b, &tf); err != nil {
		return tf, err
	}
	if tf.Token == "" || time.Now().After(tf.ExpiresAt) {
		return tf, errors.New("no valid token (login required)")
	}
	return tf, nil
}

// ---- utils ----

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
