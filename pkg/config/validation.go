package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks a configuration for structural and cross-field errors.
//
// Struct tag validation (validate:"...") covers field-level constraints;
// the cross-field checks cover what tags cannot express: backend-specific
// required fields and uniqueness across the driver list.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validateStore(&cfg.Store); err != nil {
		return err
	}
	return validateDrivers(cfg.Drivers)
}

func validateStore(cfg *StoreConfig) error {
	if cfg.Backend == "badger" && cfg.Path == "" {
		return fmt.Errorf("store.path is required when store.backend is %q", cfg.Backend)
	}
	return nil
}

func validateDrivers(drivers []DriverConfig) error {
	names := make(map[string]bool, len(drivers))
	majors := make(map[uint32]string, len(drivers))

	for i := range drivers {
		d := &drivers[i]

		if names[d.Name] {
			return fmt.Errorf("duplicate driver name %q", d.Name)
		}
		names[d.Name] = true

		if d.Major != 0 {
			if owner, taken := majors[d.Major]; taken {
				return fmt.Errorf("drivers %q and %q both claim major %d", owner, d.Name, d.Major)
			}
			majors[d.Major] = d.Name
		}

		seen := make(map[NodeConfig]bool, len(d.Nodes))
		for _, n := range d.Nodes {
			if seen[n] {
				return fmt.Errorf("driver %q declares node %s %d twice", d.Name, n.Kind, n.Minor)
			}
			seen[n] = true
		}
	}

	return nil
}
