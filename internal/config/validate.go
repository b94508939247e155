// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/catalogrec/internal/validation"
)

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := validateFields("similar.fields", c.Similar.Fields); err != nil {
		return err
	}
	return validateFields("hybrid.fields", c.Hybrid.Fields)
}

// validateFields rejects duplicate column names.
func validateFields(key string, fields []string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f)
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%s lists column %q more than once", key, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
