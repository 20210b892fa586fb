package workflows

import (
	"fmt"
	"os"
	"time"

	"github.com/JinxCappa/SOPSie/internal/audit"
	"github.com/JinxCappa/SOPSie/internal/configs"
	logger "github.com/JinxCappa/SOPSie/internal/logging"
	"github.com/JinxCappa/SOPSie/internal/rules"
	"github.com/JinxCappa/SOPSie/internal/sops"
)

// Env bundles the collaborators every workflow needs: the user's
// settings, the project's rule matcher, and a sops executor.
type Env struct {
	Settings *configs.Settings
	Matcher  *rules.Matcher
	Executor *sops.Executor
	Logger   logger.Logger
}

// LoadEnv discovers the project (by walking up from the working
// directory to .sops.yaml), loads settings, and builds the executor.
// It also points the audit log at the project root.
//
// Returns ErrConfigNotFound when no .sops.yaml governs the working
// directory.
func LoadEnv(log logger.Logger) (*Env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	matcher, err := rules.LoadMatcher(cwd)
	if err != nil {
		return nil, err
	}
	audit.ProjectRoot = matcher.Root()

	settings, err := configs.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	executor := sops.NewExecutor(
		settings.Sops.Binary,
		time.Duration(settings.Sops.TimeoutSeconds)*time.Second,
		log,
	)

	return &Env{
		Settings: settings,
		Matcher:  matcher,
		Executor: executor,
		Logger:   log,
	}, nil
}
