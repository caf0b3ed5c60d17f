// Package seed holds the categories and savings goals a new user starts with.
package seed

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"finanzas/internal/core"
)

//go:embed defaults.toml
var defaultsTOML string

type (
	categoryEntry struct {
		Name string `toml:"name"`
		Icon string `toml:"icon"`
		Type string `toml:"type"`
	}

	goalEntry struct {
		Name    string `toml:"name"`
		Target  string `toml:"target"`
		Current string `toml:"current"`
		Color   string `toml:"color"`
	}

	file struct {
		Categories []categoryEntry `toml:"category"`
		Goals      []goalEntry     `toml:"goal"`
	}

	// Defaults are validated entities ready to be stored.
	Defaults struct {
		Categories []core.Category
		Goals      []core.SavingsGoal
	}
)

// Load returns the embedded defaults, or the ones in path when it is set.
func Load(path string) (Defaults, error) {
	var f file
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return Defaults{}, fmt.Errorf("decode seed file %s: %w", path, err)
		}
	} else if _, err := toml.Decode(defaultsTOML, &f); err != nil {
		return Defaults{}, fmt.Errorf("decode embedded seed: %w", err)
	}
	return f.defaults()
}

func (f file) defaults() (Defaults, error) {
	var d Defaults
	for i, c := range f.Categories {
		cat := core.Category{
			Name:      c.Name,
			Icon:      c.Icon,
			Type:      core.TransactionType(c.Type),
			IsDefault: true,
		}
		if err := cat.Validate(); err != nil {
			return Defaults{}, fmt.Errorf("category %d (%s): %w", i, c.Name, err)
		}
		d.Categories = append(d.Categories, cat)
	}

	for i, g := range f.Goals {
		goal := core.SavingsGoal{Name: g.Name, Color: g.Color}
		var err error
		if goal.TargetAmount, err = core.ParseMoney(g.Target); err != nil {
			return Defaults{}, fmt.Errorf("goal %d (%s) target: %w", i, g.Name, err)
		}
		if g.Current != "" && g.Current != "0" {
			if goal.CurrentAmount, err = core.ParseMoney(g.Current); err != nil {
				return Defaults{}, fmt.Errorf("goal %d (%s) current: %w", i, g.Name, err)
			}
		}
		if err := goal.Validate(); err != nil {
			return Defaults{}, fmt.Errorf("goal %d (%s): %w", i, g.Name, err)
		}
		d.Goals = append(d.Goals, goal)
	}
	return d, nil
}
