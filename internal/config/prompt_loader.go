package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadedPrompts holds prompt text resolved for one AI operation
type LoadedPrompts struct {
	System string
	User   string
}

// loadPromptsFromFiles reads every configured prompt file up front so a bad
// path fails at startup instead of on the first request.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	if err := c.validatePromptFiles(); err != nil {
		return err
	}

	c.prompts = make(map[string]LoadedPrompts, len(Operations))
	loadedCount := 0
	for _, op := range Operations {
		raw := c.operationConfig(op)
		var loaded LoadedPrompts

		if raw.Prompts.SystemFile != "" {
			content, err := loadPromptFromFile(raw.Prompts.SystemFile, "system", op)
			if err != nil {
				return err
			}
			loaded.System = content
			loadedCount++
		}
		if raw.Prompts.UserFile != "" {
			content, err := loadPromptFromFile(raw.Prompts.UserFile, "user", op)
			if err != nil {
				return err
			}
			loaded.User = content
			loadedCount++
		}
		c.prompts[op] = loaded
	}

	if loadedCount == 0 {
		log.Println("[CONFIG] No prompt files configured - using inline or built-in prompts")
	} else {
		log.Printf("[CONFIG] Total prompt files loaded: %d", loadedCount)
	}
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)", promptType, operation, absPath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles reports every missing prompt file at once
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	check := func(filePath, promptType, operation string) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	for _, op := range Operations {
		raw := c.operationConfig(op)
		check(raw.Prompts.SystemFile, "system", op)
		check(raw.Prompts.UserFile, "user", op)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
