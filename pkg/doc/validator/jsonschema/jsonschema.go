/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jsonschema validates credential subjects against registered JSON schemas.
package jsonschema

import (
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
)

var logger = log.New("trustcore/jsonschema")

// CachingValidator compiles each registered schema once and reuses it for
// subsequent validations.
type CachingValidator struct {
	cache map[string]*gojsonschema.Schema
	mutex sync.RWMutex
}

// NewCachingValidator returns a new caching JSON schema validator.
func NewCachingValidator() *CachingValidator {
	return &CachingValidator{cache: make(map[string]*gojsonschema.Schema)}
}

// Register compiles schema under schemaRef. A schema declaring an $id must declare schemaRef.
func (c *CachingValidator) Register(schemaRef string, schema []byte) error {
	if id := gjson.GetBytes(schema, "$id"); id.Exists() && id.String() != schemaRef {
		return fmt.Errorf("the value of field '$id' in JSON schema [%s] does not match schema ID [%s]",
			id.String(), schemaRef)
	}

	compiled, err := gojsonschema.NewSchemaLoader().Compile(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return fmt.Errorf("compile JSON schema [%s]: %w", schemaRef, err)
	}

	c.mutex.Lock()
	c.cache[schemaRef] = compiled
	c.mutex.Unlock()

	logger.Debugf("created validator for JSON schema %s", schemaRef)

	return nil
}

// Validate validates subject against the schema registered as schemaRef.
func (c *CachingValidator) Validate(subject *claim.Node, schemaRef string) error {
	c.mutex.RLock()
	schema, ok := c.cache[schemaRef]
	c.mutex.RUnlock()

	if !ok {
		return fmt.Errorf("JSON schema [%s] not registered", schemaRef)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(subject.ToGo()))
	if err != nil {
		return fmt.Errorf("loader error: %w", err)
	}

	if !result.Valid() {
		return fmt.Errorf("validation error: %w", validationErrors(result.Errors()))
	}

	return nil
}

type validationErrors []gojsonschema.ResultError

func (e validationErrors) Error() string {
	var errMsg string

	for i, msg := range e {
		errMsg += msg.String()
		if i+1 < len(e) {
			errMsg += "; "
		}
	}

	return fmt.Sprintf("[%s]", errMsg)
}
