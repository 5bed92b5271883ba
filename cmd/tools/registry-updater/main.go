// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"smartbharat-functions/pkg/registry"
)

var registryPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	// Add command flags
	nameAdd := addCmd.String("name", "", "Function name (e.g., ai-market-advisory)")
	displayName := addCmd.String("displayName", "", "Display name (e.g., Market Advisory)")
	description := addCmd.String("description", "", "Description")
	cacheable := addCmd.Bool("cacheable", false, "Whether responses are cached")
	ttl := addCmd.Int("ttl", 0, "Cache TTL in hours (required when cacheable)")
	timeoutMs := addCmd.Int("timeout", 30000, "Function timeout in milliseconds")
	retries := addCmd.Int("retries", 2, "Max upstream retries")
	addCmd.StringVar(&registryPath, "path", "configs/function-registry.json", "Path to registry file")

	// Update command flags
	nameUpdate := updateCmd.String("name", "", "Function name to update")
	field := updateCmd.String("field", "", "Field to update (displayName, description, cacheable, ttl, timeout, retries)")
	value := updateCmd.String("value", "", "New value for the field")
	updateCmd.StringVar(&registryPath, "path", "configs/function-registry.json", "Path to registry file")

	validateCmd.StringVar(&registryPath, "path", "configs/function-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *nameAdd == "" || *displayName == "" || *description == "" {
			fmt.Println("Error: name, displayName, and description are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		fn := registry.Function{
			Name:          *nameAdd,
			DisplayName:   *displayName,
			Description:   *description,
			Path:          "/functions/" + *nameAdd,
			Cacheable:     *cacheable,
			CacheTTLHours: *ttl,
			TimeoutMs:     *timeoutMs,
			MaxRetries:    *retries,
			Tags:          []string{},
		}
		if err := addFunction(&fn); err != nil {
			fmt.Printf("Error adding function: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added function: %s\n", *nameAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *nameUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: name, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateFunction(*nameUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating function: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated function %s, field %s to %s\n", *nameUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.Load(registryPath)
		if err != nil {
			fmt.Printf("Failed to load registry: %v\n", err)
			os.Exit(1)
		}
		if err := reg.Validate(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d functions.\n", len(reg.Functions))

	case "help":
		fallthrough
	default:
		help()
	}
}

func addFunction(fn *registry.Function) error {
	reg, err := registry.Load(registryPath)
	if err != nil {
		if os.IsNotExist(err) {
			reg = &registry.FunctionRegistry{
				Version:   "1.0.0",
				Functions: []registry.Function{},
			}
		} else {
			return fmt.Errorf("failed to load registry: %w", err)
		}
	}

	if reg.Find(fn.Name) != nil {
		return fmt.Errorf("function %s already exists", fn.Name)
	}

	reg.Functions = append(reg.Functions, *fn)
	reg.LastUpdated = time.Now().Format(time.RFC3339)

	if err := reg.Validate(); err != nil {
		return err
	}
	return saveRegistry(reg, registryPath)
}

func updateFunction(name, field, value string) error {
	reg, err := registry.Load(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	fn := reg.Find(name)
	if fn == nil {
		return fmt.Errorf("function %s not found", name)
	}

	switch field {
	case "displayName":
		fn.DisplayName = value
	case "description":
		fn.Description = value
	case "cacheable":
		cacheable, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid cacheable value: %w", err)
		}
		fn.Cacheable = cacheable
	case "ttl":
		ttl, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ttl value: %w", err)
		}
		fn.CacheTTLHours = ttl
	case "timeout":
		timeout, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		fn.TimeoutMs = timeout
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		fn.MaxRetries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)

	if err := reg.Validate(); err != nil {
		return err
	}
	return saveRegistry(reg, registryPath)
}

func saveRegistry(reg *registry.FunctionRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new function to the registry
  update   Update an existing function's field
  validate Validate the registry file
  help     Show this help message

Examples:
  registry-updater add -name ai-market-advisory -displayName "Market Advisory" -description "Mandi price outlook" -cacheable -ttl 6
  registry-updater update -name ai-market-advisory -field timeout -value 45000
  registry-updater validate -path configs/function-registry.json

Use 'registry-updater <command> -h' for more information about a command.
`)
}
