package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tidy-go/internal/app"
	"tidy-go/internal/config"
)

func newUnsavableApp(t *testing.T) *app.TidyApp {
	t.Helper()
	base := t.TempDir()
	cfg := config.NewConfig(base)
	cfg.Database = config.DatabaseConfig{Type: "none"}

	a, err := app.NewTidyApp(cfg, "AddRule")
	if err != nil {
		t.Fatalf("NewTidyApp() error = %v", err)
	}

	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg.RulesPath = filepath.Join(blocker, "rules.conf")

	if _, err := a.AddRule(t.TempDir(), "copy|all|all"); err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}
	return a
}

func TestCloseApp(t *testing.T) {
	t.Run("surfaces close error", func(t *testing.T) {
		a := newUnsavableApp(t)

		var err error
		closeApp(a, &err)
		if err == nil {
			t.Fatal("closeApp() left err nil when rules could not be saved")
		}
	})

	t.Run("keeps the command error", func(t *testing.T) {
		a := newUnsavableApp(t)

		cmdErr := errors.New("command failed")
		err := cmdErr
		closeApp(a, &err)
		if err != cmdErr {
			t.Errorf("err = %v, want %v", err, cmdErr)
		}
	})

	t.Run("nil when nothing fails", func(t *testing.T) {
		cfg := config.NewConfig(t.TempDir())
		cfg.Database = config.DatabaseConfig{Type: "none"}
		a, err := app.NewTidyApp(cfg, "ListRules")
		if err != nil {
			t.Fatalf("NewTidyApp() error = %v", err)
		}

		closeApp(a, &err)
		if err != nil {
			t.Errorf("closeApp() err = %v", err)
		}
	})
}
