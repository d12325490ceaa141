package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to codegram! Let's configure your preview server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:    "Port to listen on",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 2. Default viewport.
	viewportPrompt := promptui.Select{
		Label: "Default preview viewport",
		Items: []string{
			"desktop - fill the preview panel",
			"tablet  - 768 x 1024",
			"mobile  - 375 x 667",
		},
	}
	viewportIdx, _, err := viewportPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("viewport selection: %w", err)
	}
	cfg.Preview.DefaultViewport = []string{"desktop", "tablet", "mobile"}[viewportIdx]

	// 3. Log level.
	levelPrompt := promptui.Select{
		Label: "Log level",
		Items: []string{"info", "debug", "warn", "error"},
	}
	_, cfg.Log.Level, err = levelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("log level selection: %w", err)
	}

	// 4. Snippet import directory.
	importPrompt := promptui.Prompt{
		Label:   "Directory of snippets to import on start (leave blank for none)",
		Default: "",
	}
	cfg.Demo.ImportDir, err = importPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("import dir: %w", err)
	}

	// 5. Extra exclude patterns.
	if cfg.Demo.ImportDir != "" {
		excludePrompt := promptui.Prompt{
			Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
			Default: "",
		}
		excludeStr, err := excludePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("exclude patterns: %w", err)
		}
		if excludeStr != "" {
			cfg.Demo.Exclude = append(cfg.Demo.Exclude, splitAndTrim(excludeStr)...)
		}
	}

	// 6. Generated filler posts.
	fakePrompt := promptui.Prompt{
		Label:    "Generated filler posts in the feed",
		Default:  "0",
		Validate: validateCount,
	}
	fakeStr, err := fakePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("filler posts: %w", err)
	}
	cfg.Demo.FakePosts, _ = strconv.Atoi(fakeStr)

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validateCount(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative number")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
